package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coreason/council/budget"
	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/council"
	"github.com/coreason/council/observability"
	"github.com/coreason/council/persona"
)

// ConveneRequest is the wire request for a deliberation. An empty
// Personas list asks the service to select a panel from the topic.
// Model and MaxRounds override the server's base configuration for this
// request only.
type ConveneRequest struct {
	Topic     string   `json:"topic"`
	Personas  []string `json:"personas"`
	Model     string   `json:"model,omitempty"`
	MaxRounds int      `json:"max_rounds,omitempty"`
}

// VoteResponse is one persona's vote as returned to the caller.
type VoteResponse struct {
	Proposer   string  `json:"proposer"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// ConveneResponse is the wire response for a completed deliberation.
// Dissent is JSON null when no competing stance was strong enough to
// report.
type ConveneResponse struct {
	Verdict         string         `json:"verdict"`
	ConfidenceScore float64        `json:"confidence_score"`
	Dissent         *string        `json:"dissent"`
	Votes           []VoteResponse `json:"votes"`
}

// ErrorResponse is the wire shape of every non-2xx outcome. Kind is a
// stable category; Error carries the detail.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// EngineFactory builds the deliberation engine for one convene request.
// Each request gets its own engine so per-request model and round-budget
// overrides never leak between callers.
type EngineFactory func(personas []string, model string, maxRounds int) (*council.Engine, error)

// ConfigFactory returns an EngineFactory deriving each request's engine
// from base. The request's panel always applies; model and maxRounds
// apply when non-zero. Options are passed through to council.New.
func ConfigFactory(base council.Config, opts ...council.Option) EngineFactory {
	return func(personas []string, model string, maxRounds int) (*council.Engine, error) {
		cfg := base
		cfg.Personas = personas
		if model != "" {
			cfg.Gateway.Model = model
		}
		if maxRounds > 0 {
			cfg.MaxRounds = maxRounds
		}
		return council.New(&cfg, opts...)
	}
}

// Handler serves the convene endpoint and the health probe.
type Handler struct {
	build    EngineFactory
	observer observability.Observer
}

// NewHandler creates a Handler from cfg and an engine factory.
func NewHandler(cfg Config, factory EngineFactory) (*Handler, error) {
	if factory == nil {
		return nil, errors.New("handler requires an engine factory")
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, err
	}

	return &Handler{build: factory, observer: observer}, nil
}

// RegisterRoutes registers the council routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/session/convene", h.Convene)
	e.GET("/health", h.Health)
}

// Convene runs a full deliberation and returns its verdict.
// POST /v1/session/convene
func (h *Handler) Convene(c echo.Context) error {
	ctx := c.Request().Context()

	var req ConveneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Kind:  "invalid_request",
		})
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "topic is required",
			Kind:  "invalid_request",
		})
	}

	panel := req.Personas
	if len(panel) == 0 {
		panel = persona.SelectPanel(topic)
	}

	engine, err := h.build(panel, req.Model, req.MaxRounds)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Kind:  "internal",
		})
	}

	session, err := engine.Deliberate(ctx, topic)
	h.emitConvene(ctx, session, len(panel), err)

	if err != nil {
		return conveneError(c, err)
	}
	return c.JSON(http.StatusOK, conveneResponse(session))
}

func (h *Handler) emitConvene(ctx context.Context, session *ballot.Session, panelSize int, err error) {
	data := map[string]any{
		"personas": panelSize,
		"error":    err != nil,
	}
	if session != nil {
		data["session_id"] = session.ID()
		data["status"] = string(session.Status())
		data["rounds"] = len(session.Rounds())
	}

	h.observer.OnEvent(ctx, observability.Event{
		Type:      EventConvene,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "transport.Convene",
		Data:      data,
	})
}

// Health reports service liveness.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// conveneError maps deliberation errors onto HTTP statuses: caller
// mistakes are 400, budget rejections 422, a panel that produced no
// votes is an upstream failure (502), everything else 500.
func conveneError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, council.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_request"})
	case errors.Is(err, budget.ErrExceeded):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "budget_exceeded"})
	case errors.Is(err, council.ErrAllFailed):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Kind: "all_failed"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"})
	}
}

func conveneResponse(session *ballot.Session) ConveneResponse {
	v := session.Verdict()

	resp := ConveneResponse{
		Verdict:         v.Text,
		ConfidenceScore: v.Confidence,
		Votes:           make([]VoteResponse, len(v.Votes)),
	}
	if v.Dissent != "" {
		resp.Dissent = &v.Dissent
	}
	for i, vote := range v.Votes {
		resp.Votes[i] = VoteResponse{
			Proposer:   vote.Proposer,
			Content:    vote.Content,
			Confidence: vote.Confidence,
		}
	}
	return resp
}
