// Package aggregate turns a round's ballot into a verdict: votes are
// clustered by stance, the cluster with the most confidence behind it
// wins, and competing clusters strong enough to matter are reported as
// dissent. The package also scores lexical divergence between votes
// (Entropy) as a per-round diagnostic.
package aggregate

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/coreason/council/core/ballot"
	"github.com/coreason/council/observability"
)

// Aggregator builds round verdicts from votes.
type Aggregator struct {
	keyer        StanceKeyer
	dissentRatio float64
	observer     observability.Observer
}

// New creates an Aggregator from cfg. A nil keyer falls back to
// NormalizedKeyer.
func New(cfg Config, keyer StanceKeyer) (*Aggregator, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	if keyer == nil {
		keyer = NormalizedKeyer{}
	}

	return &Aggregator{
		keyer:        keyer,
		dissentRatio: cfg.DissentRatio(),
		observer:     observer,
	}, nil
}

// cluster groups the votes sharing one stance key.
type cluster struct {
	key   string
	votes []ballot.Vote
	total float64
}

// Aggregate reduces the round's votes to a verdict. Zero votes is
// ErrNoVotes: every persona failed and no verdict exists for the round.
//
// A single vote degenerates gracefully: its content becomes the verdict
// and its own confidence the score. A lone voter at 0.6 yields 0.6, not
// the unanimous 1.0 that dividing by the total would produce.
func (a *Aggregator) Aggregate(ctx context.Context, votes []ballot.Vote) (ballot.Verdict, error) {
	if len(votes) == 0 {
		return ballot.Verdict{}, ErrNoVotes
	}

	var verdict ballot.Verdict
	if len(votes) == 1 {
		verdict = ballot.Verdict{
			Text:       votes[0].Content,
			Confidence: votes[0].Confidence,
			Votes:      slices.Clone(votes),
		}
	} else {
		verdict = a.tally(votes)
	}

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventVerdict,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "aggregate.Aggregate",
		Data: map[string]any{
			"votes":      len(votes),
			"confidence": verdict.Confidence,
			"dissent":    verdict.Dissent != "",
		},
	})

	return verdict, nil
}

func (a *Aggregator) tally(votes []ballot.Vote) ballot.Verdict {
	clusters, allTotal := a.clusterVotes(votes)

	winner := clusters[0]
	for _, c := range clusters[1:] {
		if c.total > winner.total {
			winner = c
		} else if c.total == winner.total && slices.Compare(sortedProposers(c), sortedProposers(winner)) < 0 {
			winner = c
		}
	}

	score := 0.0
	if allTotal > 0 {
		score = winner.total / allTotal
	}

	var dissents []string
	for _, c := range clusters {
		if c == winner {
			continue
		}
		if c.total >= a.dissentRatio*winner.total {
			dissents = append(dissents, dissentSummary(c))
		}
	}

	return ballot.Verdict{
		Text:       leadVote(winner).Content,
		Confidence: score,
		Dissent:    strings.Join(dissents, "; "),
		Votes:      slices.Clone(votes),
	}
}

// clusterVotes groups votes by stance key, preserving first-seen cluster
// order and input vote order within each cluster.
func (a *Aggregator) clusterVotes(votes []ballot.Vote) ([]*cluster, float64) {
	index := make(map[string]*cluster)
	var clusters []*cluster
	var allTotal float64

	for _, v := range votes {
		key := a.keyer.Key(v)
		c, ok := index[key]
		if !ok {
			c = &cluster{key: key}
			index[key] = c
			clusters = append(clusters, c)
		}
		c.votes = append(c.votes, v)
		c.total += v.Confidence
		allTotal += v.Confidence
	}

	return clusters, allTotal
}

// leadVote picks the cluster's representative: highest confidence, ties
// broken by smallest proposer id.
func leadVote(c *cluster) ballot.Vote {
	lead := c.votes[0]
	for _, v := range c.votes[1:] {
		if v.Confidence > lead.Confidence ||
			(v.Confidence == lead.Confidence && v.Proposer < lead.Proposer) {
			lead = v
		}
	}
	return lead
}

func sortedProposers(c *cluster) []string {
	names := make([]string, len(c.votes))
	for i, v := range c.votes {
		names[i] = v.Proposer
	}
	sort.Strings(names)
	return names
}

// dissentSummary renders one competing cluster as "names: content".
func dissentSummary(c *cluster) string {
	names := make([]string, len(c.votes))
	for i, v := range c.votes {
		names[i] = v.Proposer
	}
	return fmt.Sprintf("%s: %s", strings.Join(names, ", "), leadVote(c).Content)
}
