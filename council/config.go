package council

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/coreason/council/aggregate"
	"github.com/coreason/council/budget"
	"github.com/coreason/council/invoker"
	"github.com/coreason/council/rounds"
)

const (
	defaultMaxRounds          = 3
	defaultConsensusThreshold = 0.7
)

// Config holds initialization parameters for all engine subsystems.
// Each subsystem section delegates to that subsystem's config-driven
// constructor.
type Config struct {
	// Personas names the default panel. The CLI and HTTP surfaces select
	// a panel from the topic when this is empty; the engine itself
	// requires a non-empty panel.
	Personas []string `json:"personas,omitempty"`

	// MaxRounds bounds the debate. The engine stops early on convergence.
	MaxRounds int `json:"max_rounds,omitempty"`

	// ConsensusThresholdNil is the confidence score at which a debate
	// converges. Pointer distinguishes "not set" from an explicit zero;
	// use ConsensusThreshold() to read the effective value.
	ConsensusThresholdNil *float64 `json:"consensus_threshold,omitempty"`

	Gateway   invoker.Config   `json:"gateway"`
	Round     rounds.Config    `json:"round"`
	Aggregate aggregate.Config `json:"aggregate"`
	Budget    budget.Config    `json:"budget"`

	// PresetsPath points at a YAML persona roster. Empty uses the
	// built-in roster.
	PresetsPath string `json:"presets_path,omitempty"`

	// Observer names the observability sink for engine events.
	Observer string `json:"observer,omitempty"`
}

// ConsensusThreshold returns the configured threshold, or the default when
// unset.
func (c *Config) ConsensusThreshold() float64 {
	if c.ConsensusThresholdNil == nil {
		return defaultConsensusThreshold
	}
	return *c.ConsensusThresholdNil
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	threshold := defaultConsensusThreshold
	return Config{
		MaxRounds:             defaultMaxRounds,
		ConsensusThresholdNil: &threshold,
		Gateway:               invoker.DefaultConfig(),
		Round:                 rounds.DefaultConfig(),
		Aggregate:             aggregate.DefaultConfig(),
		Budget:                budget.DefaultConfig(),
		Observer:              "slog",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Gateway.Merge(&source.Gateway)
	c.Round.Merge(&source.Round)
	c.Aggregate.Merge(&source.Aggregate)
	c.Budget.Merge(&source.Budget)

	if len(source.Personas) > 0 {
		c.Personas = source.Personas
	}
	if source.MaxRounds > 0 {
		c.MaxRounds = source.MaxRounds
	}
	if source.ConsensusThresholdNil != nil {
		c.ConsensusThresholdNil = source.ConsensusThresholdNil
	}
	if source.PresetsPath != "" {
		c.PresetsPath = source.PresetsPath
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
