package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/persona"
)

// jsonInstruction is appended to every system prompt so the completion can
// be decoded as a vote payload.
const jsonInstruction = "IMPORTANT: You must respond with valid JSON."

// Gateway invokes personas through an OpenAI-compatible chat-completions
// endpoint. Each attempt sends the persona's system prompt plus the topic
// (with round context prepended after the first round) and expects a JSON
// object {"content": string, "confidence": number} in the first choice.
type Gateway struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	retries int
	client  *http.Client
}

// NewGateway creates a Gateway from cfg. BaseURL is required; zero-valued
// fields fall back to defaults.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}

	merged := DefaultConfig()
	merged.Merge(&cfg)

	return &Gateway{
		baseURL: strings.TrimSuffix(merged.BaseURL, "/"),
		apiKey:  merged.APIKey,
		model:   merged.Model,
		timeout: merged.Timeout,
		retries: merged.Retries,
		client:  &http.Client{},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// votePayload is the JSON object a persona is instructed to emit. Pointers
// distinguish absent fields from zero values.
type votePayload struct {
	Content    *string  `json:"content"`
	Confidence *float64 `json:"confidence"`
}

// Invoke calls the gateway, retrying backend failures up to the configured
// retry count. Timeouts and malformed payloads are not retried: a timeout
// has already consumed its deadline, and a malformed completion is
// deterministic for the attempt.
func (g *Gateway) Invoke(ctx context.Context, p persona.Persona, topic, roundContext string) (ballot.Vote, error) {
	user := topic
	if roundContext != "" {
		user = roundContext + "\n\n" + topic
	}

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.SystemPrompt + "\n\n" + jsonInstruction},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return ballot.Vote{}, fmt.Errorf("%w: marshal request: %v", ErrBackend, err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return ballot.Vote{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		vote, err := g.attempt(ctx, p.Name, body)
		if err == nil {
			return vote, nil
		}
		lastErr = err

		if !errors.Is(err, ErrBackend) {
			break
		}
	}
	return ballot.Vote{}, lastErr
}

// attempt performs one request-response cycle with its own full timeout.
func (g *Gateway) attempt(ctx context.Context, proposer string, body []byte) (ballot.Vote, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ballot.Vote{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ballot.Vote{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return ballot.Vote{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ballot.Vote{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return ballot.Vote{}, fmt.Errorf("%w: read response: %v", ErrBackend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ballot.Vote{}, fmt.Errorf("%w: gateway returned status %d", ErrBackend, resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return ballot.Vote{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(completion.Choices) == 0 {
		return ballot.Vote{}, fmt.Errorf("%w: completion has no choices", ErrMalformed)
	}

	var payload votePayload
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &payload); err != nil {
		return ballot.Vote{}, fmt.Errorf("%w: vote payload: %v", ErrMalformed, err)
	}
	if payload.Content == nil {
		return ballot.Vote{}, fmt.Errorf("%w: vote payload missing content", ErrMalformed)
	}

	return ballot.Vote{
		Proposer:   proposer,
		Content:    *payload.Content,
		Confidence: normalizeConfidence(payload.Confidence),
	}, nil
}

// normalizeConfidence clamps a reported confidence into [0, 1]. Absent and
// NaN values report as neutral.
func normalizeConfidence(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return neutralConfidence
	}
	return min(max(*v, 0), 1)
}
