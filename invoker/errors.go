package invoker

import (
	"context"
	"errors"

	"github.com/coreason/council/core/ballot"
)

// Sentinel errors classifying why an invocation produced no vote.
var (
	ErrTimeout   = errors.New("invocation timed out")
	ErrBackend   = errors.New("backend request failed")
	ErrMalformed = errors.New("malformed backend response")
)

// Classify maps an invocation error to its ballot failure kind. Context
// cancellation and deadline expiry count as timeouts; anything
// unrecognized is a backend failure.
func Classify(err error) ballot.FailureKind {
	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ballot.FailureTimeout
	case errors.Is(err, ErrMalformed):
		return ballot.FailureMalformed
	default:
		return ballot.FailureBackend
	}
}
