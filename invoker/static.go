package invoker

import (
	"context"
	"fmt"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/persona"
)

// StaticInvoker returns canned votes without calling a backend. It backs
// unit tests and offline CLI runs where no gateway is configured.
type StaticInvoker struct {
	// Votes maps persona names to canned votes. An empty Proposer field is
	// filled from the persona.
	Votes map[string]ballot.Vote

	// Errs maps persona names to forced invocation errors, returned as-is.
	Errs map[string]error

	// Respond computes votes for personas in neither map. When nil, such
	// personas get a neutral "no position" vote.
	Respond func(p persona.Persona, topic, roundContext string) ballot.Vote
}

func (s *StaticInvoker) Invoke(ctx context.Context, p persona.Persona, topic, roundContext string) (ballot.Vote, error) {
	if err := ctx.Err(); err != nil {
		return ballot.Vote{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if err, ok := s.Errs[p.Name]; ok {
		return ballot.Vote{}, err
	}

	if vote, ok := s.Votes[p.Name]; ok {
		if vote.Proposer == "" {
			vote.Proposer = p.Name
		}
		vote.Confidence = normalizeConfidence(&vote.Confidence)
		return vote, nil
	}

	if s.Respond != nil {
		vote := s.Respond(p, topic, roundContext)
		vote.Confidence = normalizeConfidence(&vote.Confidence)
		return vote, nil
	}

	return ballot.Vote{Proposer: p.Name, Content: "no position", Confidence: neutralConfidence}, nil
}
