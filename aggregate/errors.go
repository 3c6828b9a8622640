package aggregate

import "errors"

// ErrNoVotes reports a round in which every invocation failed. A verdict
// is never fabricated from zero votes.
var ErrNoVotes = errors.New("no votes to aggregate")
