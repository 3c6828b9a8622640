package council

import "github.com/coreason/council/observability"

// Engine event types emitted during a deliberation.
const (
	EventSessionStart    observability.EventType = "council.session.start"
	EventSessionComplete observability.EventType = "council.session.complete"
	EventRoundVerdict    observability.EventType = "council.round.verdict"
	EventConverged       observability.EventType = "council.converged"
	EventBudgetDowngrade observability.EventType = "council.budget.downgrade"
	EventError           observability.EventType = "council.error"
)
