// Package rounds fans a debate round out to a panel of personas with
// bounded parallelism and assembles the results in panel order. Every
// persona lands in the resulting Round exactly once, as a Vote or as a
// Failure; one persona failing never aborts the others.
package rounds

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/invoker"
	"github.com/coreason/council/observability"
	"github.com/coreason/council/persona"
)

// Coordinator runs debate rounds against a fixed invoker.
type Coordinator struct {
	inv          invoker.Invoker
	maxParallel  int
	workerCap    int
	callTimeout  time.Duration
	roundTimeout time.Duration
	observer     observability.Observer
}

// New creates a Coordinator from cfg and an invoker.
func New(cfg Config, inv invoker.Invoker) (*Coordinator, error) {
	if inv == nil {
		return nil, errors.New("coordinator requires an invoker")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	return &Coordinator{
		inv:          inv,
		maxParallel:  cfg.MaxParallel,
		workerCap:    cfg.WorkerCap,
		callTimeout:  cfg.CallTimeout,
		roundTimeout: cfg.RoundTimeout,
		observer:     observer,
	}, nil
}

type indexedPersona struct {
	index int
	p     persona.Persona
}

type indexedOutcome struct {
	index   int
	vote    *ballot.Vote
	failure *ballot.Failure
}

// Run executes one debate round: every panel member is invoked
// concurrently, each under CallTimeout, the whole round under
// RoundTimeout. Results land in panel order regardless of completion
// order. When the round deadline fires, stragglers are cancelled and
// recorded as timeout Failures.
//
// The returned error is non-nil only when the parent context was
// cancelled or the panel is empty; an all-failure round is still a valid
// Round, returned with a nil error.
func (c *Coordinator) Run(ctx context.Context, index int, topic string, panel []persona.Persona, roundContext string) (ballot.Round, error) {
	round := ballot.Round{Index: index}

	if len(panel) == 0 {
		return round, errors.New("round requires at least one persona")
	}

	roundCtx := ctx
	if c.roundTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, c.roundTimeout)
		defer cancel()
	}

	workerCount := c.workerCount(len(panel))

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventRoundStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "rounds.Run",
		Data: map[string]any{
			"round":        index,
			"panel_size":   len(panel),
			"worker_count": workerCount,
		},
	})

	workQueue := make(chan indexedPersona, len(panel))
	outcomes := make(chan indexedOutcome, len(panel))
	done := make(chan struct{})

	voteByIndex := make(map[int]ballot.Vote)
	failureByIndex := make(map[int]ballot.Failure)

	go func() {
		defer close(done)
		for outcome := range outcomes {
			if outcome.vote != nil {
				voteByIndex[outcome.index] = *outcome.vote
			} else {
				failureByIndex[outcome.index] = *outcome.failure
			}
		}
	}()

	var wg sync.WaitGroup
	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(roundCtx, topic, roundContext, workQueue, outcomes)
		}()
	}

	for i, p := range panel {
		workQueue <- indexedPersona{index: i, p: p}
	}
	close(workQueue)

	wg.Wait()
	close(outcomes)
	<-done

	for i, p := range panel {
		if vote, ok := voteByIndex[i]; ok {
			round.Votes = append(round.Votes, vote)
			continue
		}
		if failure, ok := failureByIndex[i]; ok {
			round.Failures = append(round.Failures, failure)
			continue
		}
		// Cancelled before the persona's invocation completed.
		round.Failures = append(round.Failures, ballot.Failure{
			Proposer: p.Name,
			Reason:   "round deadline exceeded",
			Kind:     ballot.FailureTimeout,
		})
	}

	c.observer.OnEvent(ctx, observability.Event{
		Type:      EventRoundComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "rounds.Run",
		Data: map[string]any{
			"round":    index,
			"votes":    len(round.Votes),
			"failures": len(round.Failures),
		},
	})

	// A round cut short by its own deadline is a valid round; only parent
	// cancellation aborts the debate.
	if err := ctx.Err(); err != nil {
		return round, err
	}
	return round, nil
}

func (c *Coordinator) worker(ctx context.Context, topic, roundContext string, queue <-chan indexedPersona, outcomes chan<- indexedOutcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-queue:
			if !ok {
				return
			}

			c.observer.OnEvent(ctx, observability.Event{
				Type:      EventBallotStart,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "rounds.Run",
				Data: map[string]any{
					"persona": item.p.Name,
					"index":   item.index,
				},
			})

			callCtx := ctx
			cancel := context.CancelFunc(func() {})
			if c.callTimeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
			}
			vote, err := c.inv.Invoke(callCtx, item.p, topic, roundContext)
			cancel()

			c.observer.OnEvent(ctx, observability.Event{
				Type:      EventBallotCast,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "rounds.Run",
				Data: map[string]any{
					"persona": item.p.Name,
					"index":   item.index,
					"error":   err != nil,
				},
			})

			if err != nil {
				outcomes <- indexedOutcome{
					index: item.index,
					failure: &ballot.Failure{
						Proposer: item.p.Name,
						Reason:   err.Error(),
						Kind:     invoker.Classify(err),
					},
				}
			} else {
				outcomes <- indexedOutcome{index: item.index, vote: &vote}
			}
		}
	}
}

// workerCount determines pool size: exact when MaxParallel is set, else
// min(NumCPU*2, WorkerCap, panelSize), at least 1.
func (c *Coordinator) workerCount(panelSize int) int {
	if c.maxParallel > 0 {
		return c.maxParallel
	}

	workers := min(runtime.NumCPU()*2, c.workerCap, panelSize)
	if workers <= 0 {
		workers = 1
	}
	return workers
}
