package aggregate

import (
	"strings"

	"github.com/coreason/council/core/ballot"
)

// StanceKeyer reduces a vote to an opaque stance key; votes with equal
// keys argue the same position. Implementations must be deterministic so
// aggregation is reproducible for a given ballot.
type StanceKeyer interface {
	Key(v ballot.Vote) string
}

// NormalizedKeyer keys votes by lexically normalized content: lowercased,
// whitespace collapsed, surrounding punctuation stripped from each token.
// It knows nothing about meaning; semantically equal but differently
// worded stances land in different clusters.
type NormalizedKeyer struct{}

const surroundingPunct = ".,;:!?\"'"

func (NormalizedKeyer) Key(v ballot.Vote) string {
	fields := strings.Fields(strings.ToLower(v.Content))

	kept := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, surroundingPunct); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
