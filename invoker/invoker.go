// Package invoker turns one persona and a topic into one vote by calling
// an LLM backend. It defines the Invoker interface, a Gateway
// implementation speaking the chat-completions protocol, and a
// deterministic StaticInvoker for tests and offline runs.
//
// Errors returned by implementations classify with errors.Is against the
// package sentinels (ErrTimeout, ErrBackend, ErrMalformed); Classify maps
// them onto ballot failure kinds.
package invoker

import (
	"context"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/persona"
)

// Invoker produces a vote from a persona for a topic. roundContext carries
// prior-round positions and is empty for the first round. Implementations
// must honor context cancellation and deadlines: an abandoned call stops
// its in-flight work rather than letting it run to completion.
//
// Votes returned from Invoke are always well-formed: confidence is clamped
// into [0, 1], with absent or NaN values reported as neutral 0.5.
type Invoker interface {
	Invoke(ctx context.Context, p persona.Persona, topic, roundContext string) (ballot.Vote, error)
}
