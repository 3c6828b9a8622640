package rounds_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/invoker"
	"github.com/coreason/council/persona"
	"github.com/coreason/council/rounds"
)

// slowInvoker votes after a delay, honoring cancellation, and tracks the
// highest number of concurrent invocations it observed.
type slowInvoker struct {
	delay       time.Duration
	inflight    atomic.Int32
	maxInflight atomic.Int32
	fail        map[string]error
}

func (s *slowInvoker) Invoke(ctx context.Context, p persona.Persona, topic, roundContext string) (ballot.Vote, error) {
	cur := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		prev := s.maxInflight.Load()
		if cur <= prev || s.maxInflight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return ballot.Vote{}, fmt.Errorf("%w: %v", invoker.ErrTimeout, ctx.Err())
		case <-time.After(s.delay):
		}
	}

	if err, ok := s.fail[p.Name]; ok {
		return ballot.Vote{}, err
	}
	return ballot.Vote{Proposer: p.Name, Content: "position of " + p.Name, Confidence: 0.9}, nil
}

func panelOf(names ...string) []persona.Persona {
	panel := make([]persona.Persona, len(names))
	for i, name := range names {
		panel[i] = persona.Generic(name)
	}
	return panel
}

func quietConfig() rounds.Config {
	cfg := rounds.DefaultConfig()
	cfg.Observer = "noop"
	return cfg
}

func TestCoordinator_Run(t *testing.T) {
	c, err := rounds.New(quietConfig(), &slowInvoker{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	panel := panelOf("Generalist", "Skeptic", "Optimist")
	round, err := c.Run(context.Background(), 0, "topic", panel, "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if round.Index != 0 {
		t.Errorf("got index %d, want 0", round.Index)
	}
	if len(round.Votes) != 3 {
		t.Fatalf("got %d votes, want 3", len(round.Votes))
	}
	if len(round.Failures) != 0 {
		t.Errorf("got %d failures, want 0", len(round.Failures))
	}
	for i, p := range panel {
		if round.Votes[i].Proposer != p.Name {
			t.Errorf("vote %d: got proposer %q, want %q (panel order)", i, round.Votes[i].Proposer, p.Name)
		}
	}
}

func TestCoordinator_Run_PartialFailure(t *testing.T) {
	inv := &slowInvoker{fail: map[string]error{
		"Skeptic": fmt.Errorf("%w: status 502", invoker.ErrBackend),
	}}
	c, err := rounds.New(quietConfig(), inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	round, err := c.Run(context.Background(), 1, "topic", panelOf("Generalist", "Skeptic", "Optimist"), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := len(round.Votes) + len(round.Failures); got != 3 {
		t.Fatalf("got %d entries, want exactly one per persona", got)
	}
	if len(round.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(round.Failures))
	}

	failure := round.Failures[0]
	if failure.Proposer != "Skeptic" {
		t.Errorf("got failing proposer %q, want Skeptic", failure.Proposer)
	}
	if failure.Kind != ballot.FailureBackend {
		t.Errorf("got failure kind %q, want %q", failure.Kind, ballot.FailureBackend)
	}
	if failure.Reason == "" {
		t.Error("failure reason should carry the error text")
	}
}

func TestCoordinator_Run_AllFailuresIsValidRound(t *testing.T) {
	inv := &slowInvoker{fail: map[string]error{
		"Generalist": invoker.ErrBackend,
		"Skeptic":    invoker.ErrMalformed,
	}}
	c, err := rounds.New(quietConfig(), inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	round, err := c.Run(context.Background(), 0, "topic", panelOf("Generalist", "Skeptic"), "")
	if err != nil {
		t.Fatalf("Run should not fail for an all-failure round: %v", err)
	}
	if len(round.Votes) != 0 || len(round.Failures) != 2 {
		t.Errorf("got %d votes and %d failures, want 0 and 2", len(round.Votes), len(round.Failures))
	}
	if round.Failures[1].Kind != ballot.FailureMalformed {
		t.Errorf("got kind %q, want %q", round.Failures[1].Kind, ballot.FailureMalformed)
	}
}

func TestCoordinator_Run_EmptyPanel(t *testing.T) {
	c, err := rounds.New(quietConfig(), &slowInvoker{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := c.Run(context.Background(), 0, "topic", nil, ""); err == nil {
		t.Fatal("expected error for empty panel")
	}
}

func TestCoordinator_Run_BoundedParallelism(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent test in short mode")
	}

	inv := &slowInvoker{delay: 30 * time.Millisecond}
	cfg := quietConfig()
	cfg.MaxParallel = 2

	c, err := rounds.New(cfg, inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	round, err := c.Run(context.Background(), 0, "topic",
		panelOf("A", "B", "C", "D", "E", "F"), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(round.Votes) != 6 {
		t.Fatalf("got %d votes, want 6", len(round.Votes))
	}
	if got := inv.maxInflight.Load(); got > 2 {
		t.Errorf("observed %d concurrent invocations, want at most 2", got)
	}
}

func TestCoordinator_Run_RoundTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent test in short mode")
	}

	inv := &slowInvoker{delay: 300 * time.Millisecond}
	cfg := quietConfig()
	cfg.CallTimeout = 0
	cfg.RoundTimeout = 40 * time.Millisecond
	cfg.MaxParallel = 1 // serialize so later personas never start

	c, err := rounds.New(cfg, inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Now()
	round, err := c.Run(context.Background(), 0, "topic", panelOf("A", "B", "C"), "")
	if err != nil {
		t.Fatalf("round deadline should not surface as an error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("round took %v, stragglers were not cancelled", elapsed)
	}

	if got := len(round.Votes) + len(round.Failures); got != 3 {
		t.Fatalf("got %d entries, want exactly one per persona", got)
	}
	for _, f := range round.Failures {
		if f.Kind != ballot.FailureTimeout {
			t.Errorf("persona %s: got kind %q, want %q", f.Proposer, f.Kind, ballot.FailureTimeout)
		}
	}
	if len(round.Failures) == 0 {
		t.Error("expected stragglers recorded as timeout failures")
	}
}

func TestCoordinator_Run_CallTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent test in short mode")
	}

	inv := &slowInvoker{delay: 300 * time.Millisecond}
	cfg := quietConfig()
	cfg.CallTimeout = 30 * time.Millisecond
	cfg.RoundTimeout = 0

	c, err := rounds.New(cfg, inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	round, err := c.Run(context.Background(), 0, "topic", panelOf("A", "B"), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(round.Failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(round.Failures))
	}
	for _, f := range round.Failures {
		if f.Kind != ballot.FailureTimeout {
			t.Errorf("got kind %q, want %q", f.Kind, ballot.FailureTimeout)
		}
	}
}

func TestCoordinator_Run_ParentCancellation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent test in short mode")
	}

	inv := &slowInvoker{delay: 300 * time.Millisecond}
	cfg := quietConfig()
	cfg.CallTimeout = 0
	cfg.RoundTimeout = 0

	c, err := rounds.New(cfg, inv)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	round, err := c.Run(ctx, 0, "topic", panelOf("A", "B"), "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if got := len(round.Votes) + len(round.Failures); got != 2 {
		t.Errorf("got %d entries, want one per persona even when cancelled", got)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Run("nil invoker", func(t *testing.T) {
		if _, err := rounds.New(quietConfig(), nil); err == nil {
			t.Fatal("expected error for nil invoker")
		}
	})

	t.Run("round timeout below call timeout", func(t *testing.T) {
		cfg := quietConfig()
		cfg.CallTimeout = time.Minute
		cfg.RoundTimeout = time.Second
		if _, err := rounds.New(cfg, &slowInvoker{}); err == nil {
			t.Fatal("expected error for round timeout below call timeout")
		}
	})

	t.Run("unknown observer", func(t *testing.T) {
		cfg := quietConfig()
		cfg.Observer = "missing"
		if _, err := rounds.New(cfg, &slowInvoker{}); err == nil {
			t.Fatal("expected error for unknown observer")
		}
	})
}

func TestConfig_Merge(t *testing.T) {
	cfg := rounds.DefaultConfig()
	cfg.Merge(&rounds.Config{MaxParallel: 4, RoundTimeout: 5 * time.Minute})

	if cfg.MaxParallel != 4 {
		t.Errorf("got MaxParallel %d, want 4", cfg.MaxParallel)
	}
	if cfg.RoundTimeout != 5*time.Minute {
		t.Errorf("got RoundTimeout %v, want 5m", cfg.RoundTimeout)
	}
	if cfg.WorkerCap != 16 {
		t.Errorf("got WorkerCap %d, want default 16 untouched", cfg.WorkerCap)
	}
	if cfg.CallTimeout != 30*time.Second {
		t.Errorf("got CallTimeout %v, want default 30s untouched", cfg.CallTimeout)
	}
}
