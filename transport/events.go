package transport

import "github.com/coreason/council/observability"

// Event types emitted by the HTTP transport.
const (
	// EventServerStart fires when the listener comes up.
	EventServerStart observability.EventType = "transport.server.start"
	// EventServerStop fires after the server has drained and stopped.
	EventServerStop observability.EventType = "transport.server.stop"
	// EventConvene fires once per convene request with the session outcome.
	EventConvene observability.EventType = "transport.convene"
)
