// Package council implements the multi-persona deliberation engine that
// composes persona panels, parallel round fan-out, and vote aggregation
// into a debate loop with convergence detection.
//
// The engine initializes from configuration via New, creating all
// subsystems internally. Functional options allow test overrides of any
// subsystem.
//
//	e, err := council.New(&cfg)
//	session, err := e.Deliberate(ctx, "Should the trial proceed to phase 3?")
package council

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/coreason/council/aggregate"
	"github.com/coreason/council/archive"
	"github.com/coreason/council/budget"
	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/invoker"
	"github.com/coreason/council/observability"
	"github.com/coreason/council/persona"
	"github.com/coreason/council/rounds"
)

// Option injects a subsystem into an Engine, bypassing config-driven
// initialization for it. Applied by New before cold start so dependent
// defaults build on the injected pieces.
type Option func(*Engine)

// WithInvoker overrides the config-created gateway invoker.
func WithInvoker(inv invoker.Invoker) Option {
	return func(e *Engine) { e.invoker = inv }
}

// WithCoordinator overrides the config-created round coordinator.
func WithCoordinator(c *rounds.Coordinator) Option {
	return func(e *Engine) { e.coordinator = c }
}

// WithAggregator overrides the config-created aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(e *Engine) { e.aggregator = a }
}

// WithObserver overrides the config-named observer.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithStanceKeyer sets the stance keyer used by the config-created
// aggregator.
func WithStanceKeyer(k aggregate.StanceKeyer) Option {
	return func(e *Engine) { e.keyer = k }
}

// WithArchive sets the store that receives session traces once a
// deliberation reaches a terminal state.
func WithArchive(s archive.Store) Option {
	return func(e *Engine) { e.store = s }
}

// Engine is the deliberation runtime that convenes a persona panel and
// drives debate rounds to a verdict.
type Engine struct {
	registry    *persona.Registry
	invoker     invoker.Invoker
	coordinator *rounds.Coordinator
	aggregator  *aggregate.Aggregator
	budget      *budget.Manager
	store       archive.Store
	observer    observability.Observer
	keyer       aggregate.StanceKeyer
	personas    []string
	maxRounds   int
	threshold   float64
}

// New creates an Engine from configuration. Subsystems (gateway,
// coordinator, aggregator, persona registry) are initialized from their
// respective config sections. Functional options can override any
// subsystem for testing; the gateway is only built when no coordinator
// or invoker was injected.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		personas:  slices.Clone(cfg.Personas),
		maxRounds: cfg.MaxRounds,
		threshold: cfg.ConsensusThreshold(),
	}
	if e.maxRounds <= 0 {
		e.maxRounds = defaultMaxRounds
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.observer == nil {
		observer, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		e.observer = observer
	}

	if cfg.PresetsPath != "" {
		reg, err := persona.LoadPresets(cfg.PresetsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load personas: %w", err)
		}
		e.registry = reg
	} else {
		e.registry = persona.DefaultRegistry()
	}

	if e.coordinator == nil {
		if e.invoker == nil {
			gw, err := invoker.NewGateway(cfg.Gateway)
			if err != nil {
				return nil, fmt.Errorf("failed to create gateway: %w", err)
			}
			e.invoker = gw
		}
		coordinator, err := rounds.New(cfg.Round, e.invoker)
		if err != nil {
			return nil, fmt.Errorf("failed to create coordinator: %w", err)
		}
		e.coordinator = coordinator
	}

	if e.aggregator == nil {
		aggregator, err := aggregate.New(cfg.Aggregate, e.keyer)
		if err != nil {
			return nil, fmt.Errorf("failed to create aggregator: %w", err)
		}
		e.aggregator = aggregator
	}

	e.budget = budget.NewManager(cfg.Budget)

	return e, nil
}

// Registry returns the engine's persona registry.
func (e *Engine) Registry() *persona.Registry {
	return e.registry
}

// Deliberate convenes the configured panel on topic and drives debate
// rounds until the verdict confidence reaches the consensus threshold,
// the round budget is exhausted, or every persona fails. The returned
// session carries the per-round record even when an error is returned.
//
// Exhausting the round budget without converging is not an error: the
// best verdict across rounds is adopted and the session ends in
// StatusMaxRounds. A deliberation in which no round produced a single
// vote ends in StatusAllFailed with a PanelError.
func (e *Engine) Deliberate(ctx context.Context, topic string) (*ballot.Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidRequest)
	}
	if len(e.personas) == 0 {
		return nil, fmt.Errorf("%w: no personas configured", ErrInvalidRequest)
	}

	session := ballot.NewSession(topic, e.personas)

	panel := make([]persona.Persona, len(e.personas))
	for i, name := range e.personas {
		panel[i] = e.registry.Get(name)
	}

	planned, err := e.budget.Plan(len(panel), e.maxRounds)
	if err != nil {
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "council.Deliberate",
			Data: map[string]any{
				"session_id": session.ID(),
				"error":      err.Error(),
			},
		})
		return session, err
	}
	if planned < e.maxRounds {
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventBudgetDowngrade,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "council.Deliberate",
			Data: map[string]any{
				"session_id":       session.ID(),
				"requested_rounds": e.maxRounds,
				"planned_rounds":   planned,
				"personas":         len(panel),
			},
		})
	}

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventSessionStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "council.Deliberate",
		Data: map[string]any{
			"session_id":   session.ID(),
			"topic_length": len(topic),
			"personas":     len(panel),
			"max_rounds":   planned,
		},
	})

	var (
		best         *ballot.Verdict
		bestScore    float64
		roundContext string
	)

	for i := range planned {
		if err := ctx.Err(); err != nil {
			return session, err
		}

		round, err := e.coordinator.Run(ctx, i, topic, panel, roundContext)
		round.Entropy = aggregate.Entropy(round.Votes)
		session.AppendRound(round)
		e.logRound(session, round)
		if err != nil {
			e.observer.OnEvent(ctx, observability.Event{
				Type:      EventError,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "council.Deliberate",
				Data: map[string]any{
					"session_id": session.ID(),
					"round":      i,
					"error":      err.Error(),
				},
			})
			return session, err
		}

		verdict, err := e.aggregator.Aggregate(ctx, round.Votes)
		if err != nil {
			// Every persona failed this round. With no verdict banked from
			// an earlier round the debate is unsalvageable; otherwise the
			// best verdict so far still stands and the panel gets another
			// chance.
			if best == nil {
				return session, e.failSession(ctx, session, round.Failures)
			}

			e.observer.OnEvent(ctx, observability.Event{
				Type:      EventError,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "council.Deliberate",
				Data: map[string]any{
					"session_id": session.ID(),
					"round":      i,
					"failures":   len(round.Failures),
					"error":      err.Error(),
				},
			})
			roundContext = e.buildRoundContext(round, nil)
			continue
		}

		session.Log("aggregator", fmt.Sprintf("verdict_round_%d", i),
			fmt.Sprintf("%s (confidence score %.3f)", verdict.Text, verdict.Confidence))

		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventRoundVerdict,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "council.Deliberate",
			Data: map[string]any{
				"session_id": session.ID(),
				"round":      i,
				"votes":      len(round.Votes),
				"failures":   len(round.Failures),
				"confidence": verdict.Confidence,
				"dissent":    verdict.Dissent != "",
				"entropy":    round.Entropy,
			},
		})

		// Earlier rounds win score ties so the adopted verdict is the
		// first one to have reached the best score.
		if best == nil || verdict.Confidence > bestScore {
			banked := verdict
			best = &banked
			bestScore = verdict.Confidence
		}

		if verdict.Confidence >= e.threshold {
			session.SetVerdict(verdict)
			session.SetStatus(ballot.StatusConverged)

			e.observer.OnEvent(ctx, observability.Event{
				Type:      EventConverged,
				Level:     observability.LevelInfo,
				Timestamp: time.Now(),
				Source:    "council.Deliberate",
				Data: map[string]any{
					"session_id": session.ID(),
					"round":      i,
					"confidence": verdict.Confidence,
				},
			})

			e.archiveSession(ctx, session)
			e.emitComplete(ctx, session, i+1)
			return session, nil
		}

		roundContext = e.buildRoundContext(round, &verdict)
	}

	// Round budget exhausted without convergence. Any all-failure round
	// with nothing banked returned inside the loop, so at least one round
	// produced a verdict and best is set.
	session.SetVerdict(*best)
	session.SetStatus(ballot.StatusMaxRounds)
	e.archiveSession(ctx, session)
	e.emitComplete(ctx, session, planned)
	return session, nil
}

// failSession closes a session in which no round produced a vote.
func (e *Engine) failSession(ctx context.Context, session *ballot.Session, failures []ballot.Failure) error {
	session.SetStatus(ballot.StatusAllFailed)
	e.archiveSession(ctx, session)

	panelErr := &PanelError{Failures: failures}
	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventError,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "council.Deliberate",
		Data: map[string]any{
			"session_id": session.ID(),
			"rounds":     len(session.Rounds()),
			"error":      panelErr.Error(),
		},
	})
	return panelErr
}

// buildRoundContext renders the previous round for replay to every persona
// in the next one.
func (e *Engine) buildRoundContext(prior ballot.Round, verdict *ballot.Verdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Round %d positions:\n", prior.Index+1)
	for _, v := range prior.Votes {
		fmt.Fprintf(&b, "- %s (confidence %.2f): %s\n", v.Proposer, v.Confidence, v.Content)
	}
	for _, f := range prior.Failures {
		fmt.Fprintf(&b, "- %s: no position (%s)\n", f.Proposer, f.Kind)
	}

	if verdict != nil {
		fmt.Fprintf(&b, "\nLeading position (confidence score %.2f): %s\n", verdict.Confidence, verdict.Text)
		if verdict.Dissent != "" {
			fmt.Fprintf(&b, "Dissent: %s\n", verdict.Dissent)
		}
	}

	b.WriteString("\nConsider the panel's positions and restate your own, revised if warranted.")
	return b.String()
}

func (e *Engine) logRound(session *ballot.Session, round ballot.Round) {
	proposal := fmt.Sprintf("proposal_round_%d", round.Index)
	for _, v := range round.Votes {
		session.Log(v.Proposer, proposal, v.Content)
	}

	failure := fmt.Sprintf("failure_round_%d", round.Index)
	for _, f := range round.Failures {
		session.Log(f.Proposer, failure, f.Reason)
	}
}

// archiveSession persists the session trace when a store is configured.
// Archive failures are reported through the observer, never to the caller.
func (e *Engine) archiveSession(ctx context.Context, session *ballot.Session) {
	if e.store == nil {
		return
	}

	data, err := json.MarshalIndent(session.Snapshot(), "", "  ")
	if err == nil {
		err = e.store.Save(ctx, archive.Record{ID: session.ID(), Data: data})
	}
	if err != nil {
		e.observer.OnEvent(ctx, observability.Event{
			Type:      EventError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "council.Deliberate",
			Data: map[string]any{
				"session_id": session.ID(),
				"error":      fmt.Sprintf("archive failed: %v", err),
			},
		})
	}
}

func (e *Engine) emitComplete(ctx context.Context, session *ballot.Session, completed int) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventSessionComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "council.Deliberate",
		Data: map[string]any{
			"session_id": session.ID(),
			"status":     string(session.Status()),
			"rounds":     completed,
		},
	})
}
