package aggregate

const defaultDissentRatio = 0.30

// Config controls verdict construction.
type Config struct {
	// DissentRatioNil sets the competitor-to-winner confidence ratio at
	// which dissent is reported. Use DissentRatio() to access. Pointer
	// distinguishes unset (default 0.30) from an explicit 0, which reports
	// every competing stance.
	DissentRatioNil *float64 `json:"dissent_ratio"`

	// Observer names the observability sink ("noop", "slog", ...).
	Observer string `json:"observer"`
}

func (c *Config) DissentRatio() float64 {
	if c.DissentRatioNil == nil {
		return defaultDissentRatio
	}
	return *c.DissentRatioNil
}

// DefaultConfig returns aggregation defaults.
func DefaultConfig() Config {
	ratio := defaultDissentRatio
	return Config{
		DissentRatioNil: &ratio,
		Observer:        "slog",
	}
}

// Merge applies set values from source into c.
func (c *Config) Merge(source *Config) {
	if source.DissentRatioNil != nil {
		c.DissentRatioNil = source.DissentRatioNil
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
