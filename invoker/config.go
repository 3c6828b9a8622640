package invoker

import "time"

const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 30 * time.Second

	// neutralConfidence stands in for confidence a backend did not report.
	neutralConfidence = 0.5
)

// Config holds gateway connection settings. An empty BaseURL means no
// gateway is configured; callers fall back to a StaticInvoker.
type Config struct {
	BaseURL string        `json:"base_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"`
	Model   string        `json:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
	Retries int           `json:"retries,omitempty"`
}

// DefaultConfig returns a Config with default model and timeout. Retries
// default to 0: one attempt per invocation.
func DefaultConfig() Config {
	return Config{
		Model:   defaultModel,
		Timeout: defaultTimeout,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}
	if source.Retries > 0 {
		c.Retries = source.Retries
	}
}
