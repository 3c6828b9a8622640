package aggregate

import "github.com/coreason/council/observability"

// Aggregation event types.
const (
	EventVerdict observability.EventType = "aggregate.verdict"
)
