package rounds

import (
	"fmt"
	"time"
)

const (
	defaultWorkerCap    = 16
	defaultCallTimeout  = 30 * time.Second
	defaultRoundTimeout = 2 * time.Minute
)

// Config controls round fan-out.
//
// Worker pool sizing follows the usual auto-detection scheme: MaxParallel
// set to 0 means min(NumCPU*2, WorkerCap, panel size), at least 1; a
// positive MaxParallel is used exactly.
type Config struct {
	// MaxParallel specifies the exact worker count (0 = auto-detect).
	MaxParallel int `json:"max_parallel"`

	// WorkerCap limits auto-detected workers.
	WorkerCap int `json:"worker_cap"`

	// CallTimeout bounds each persona invocation (0 = no per-call bound).
	CallTimeout time.Duration `json:"call_timeout"`

	// RoundTimeout bounds the whole round (0 = no round bound). Must be at
	// least CallTimeout when both are set: a round that cannot fit one
	// full invocation would time out every persona unconditionally.
	RoundTimeout time.Duration `json:"round_timeout"`

	// Observer names the observability sink ("noop", "slog", ...).
	Observer string `json:"observer"`
}

// DefaultConfig returns fan-out defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCap:    defaultWorkerCap,
		CallTimeout:  defaultCallTimeout,
		RoundTimeout: defaultRoundTimeout,
		Observer:     "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxParallel > 0 {
		c.MaxParallel = source.MaxParallel
	}
	if source.WorkerCap > 0 {
		c.WorkerCap = source.WorkerCap
	}
	if source.CallTimeout > 0 {
		c.CallTimeout = source.CallTimeout
	}
	if source.RoundTimeout > 0 {
		c.RoundTimeout = source.RoundTimeout
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.RoundTimeout > 0 && c.CallTimeout > 0 && c.RoundTimeout < c.CallTimeout {
		return fmt.Errorf("round timeout %v is shorter than call timeout %v", c.RoundTimeout, c.CallTimeout)
	}
	return nil
}
