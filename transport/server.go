// Package transport exposes the council over HTTP: a convene endpoint
// that runs a full deliberation per request, and a health probe.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/coreason/council/observability"
)

// Server is the council HTTP server. It owns the echo instance and its
// lifecycle; routes come from a Handler.
type Server struct {
	echo            *echo.Echo
	addr            string
	shutdownTimeout time.Duration
	observer        observability.Observer
}

// NewServer creates a Server that builds one deliberation engine per
// request through factory.
func NewServer(cfg Config, factory EngineFactory) (*Server, error) {
	h, err := NewHandler(cfg, factory)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	return &Server{
		echo:            e,
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		observer:        h.observer,
	}, nil
}

// Echo returns the underlying echo instance, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout. It returns nil after a clean
// shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventServerStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "transport.Server",
		Data:      map[string]any{"addr": s.addr},
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(shutdownCtx)

	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventServerStop,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "transport.Server",
		Data:      map[string]any{"addr": s.addr, "clean": err == nil},
	})

	return err
}
