package rounds

import "github.com/coreason/council/observability"

// Round coordination event types.
const (
	EventRoundStart    observability.EventType = "round.start"
	EventRoundComplete observability.EventType = "round.complete"
	EventBallotStart   observability.EventType = "ballot.start"
	EventBallotCast    observability.EventType = "ballot.cast"
)
