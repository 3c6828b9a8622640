package transport

import "time"

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10 * time.Second
	defaultObserver        = "slog"
)

// Config controls the HTTP surface of the council service.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `json:"addr"`
	// ShutdownTimeout bounds connection draining during shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	// Observer names the observability sink ("noop", "slog").
	Observer string `json:"observer"`
}

// DefaultConfig returns the transport defaults: port 8080, a 10 second
// drain window, and slog-backed observability.
func DefaultConfig() Config {
	return Config{
		Addr:            defaultAddr,
		ShutdownTimeout: defaultShutdownTimeout,
		Observer:        defaultObserver,
	}
}

// Merge overlays non-zero fields from source onto c.
func (c *Config) Merge(source *Config) {
	if source == nil {
		return
	}
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
