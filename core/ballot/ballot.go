// Package ballot defines the core value types exchanged during a council
// deliberation: votes, failures, rounds, verdicts, and the session record
// that accumulates them. Types here are plain data with JSON tags matching
// the wire contract; orchestration logic lives in the council package.
package ballot

// Vote is a single persona's proposal for a topic in one debate round.
// Confidence is always within [0, 1]; the invoker clamps out-of-range
// values before a Vote is constructed.
type Vote struct {
	Proposer   string  `json:"proposer"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// FailureKind classifies why an invocation produced no vote.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureBackend   FailureKind = "backend_error"
	FailureMalformed FailureKind = "malformed_response"
)

// Failure records a persona that did not produce a usable vote in a round.
// Reason is a human-readable description; Kind is the stable category
// used for tallying and reporting.
type Failure struct {
	Proposer string      `json:"proposer"`
	Reason   string      `json:"reason"`
	Kind     FailureKind `json:"kind"`
}
