// Package budget estimates and caps the invocation cost of a deliberation.
//
// The first round sends each persona the bare topic. Every later round
// replays the full panel's prior positions to every persona, so its cost
// grows with the square of the panel size. A Manager holds a unit ceiling
// and shrinks the round plan to fit, or rejects topics that cannot fit at
// all.
package budget

import "fmt"

// Estimate returns the invocation units consumed by a deliberation of
// personas across rounds. Each first-round call costs one unit; each call
// in a later round costs personas units for the replayed context.
func Estimate(personas, rounds int) int {
	if personas <= 0 || rounds <= 0 {
		return 0
	}
	if rounds == 1 {
		return personas
	}
	return personas + (rounds-1)*personas*personas
}

// Config controls budget enforcement.
type Config struct {
	// MaxUnits caps the estimated cost of a deliberation. Zero disables
	// enforcement.
	MaxUnits int `json:"max_units,omitempty"`
}

// DefaultConfig returns a Config with enforcement disabled.
func DefaultConfig() Config {
	return Config{}
}

// Merge overlays non-zero fields from source onto c.
func (c *Config) Merge(source *Config) {
	if source == nil {
		return
	}
	if source.MaxUnits != 0 {
		c.MaxUnits = source.MaxUnits
	}
}

// Manager plans round counts against a unit ceiling.
type Manager struct {
	maxUnits int
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{maxUnits: cfg.MaxUnits}
}

// Enabled reports whether the manager enforces a ceiling.
func (m *Manager) Enabled() bool {
	return m.maxUnits > 0
}

// Plan returns the number of rounds to run for a panel of personas. When
// the requested rounds fit the budget they are returned unchanged. When
// they do not, the plan downgrades to a single round if that fits, and
// fails with ErrExceeded otherwise.
func (m *Manager) Plan(personas, rounds int) (int, error) {
	if !m.Enabled() {
		return rounds, nil
	}
	if Estimate(personas, rounds) <= m.maxUnits {
		return rounds, nil
	}
	if Estimate(personas, 1) <= m.maxUnits {
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %d personas need %d units for a single round, budget is %d",
		ErrExceeded, personas, Estimate(personas, 1), m.maxUnits)
}
