package council

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coreason/council/core/ballot"
)

// Sentinel errors for deliberation.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAllFailed      = errors.New("all personas failed")
)

// PanelError reports a deliberation in which no round produced a single
// vote. It carries every invocation failure from the final round and
// unwraps to ErrAllFailed.
type PanelError struct {
	Failures []ballot.Failure
}

// Error returns a categorized summary of the panel failures.
//
// A single failure is reported in full. Multiple failures are grouped by
// reason with counts, most frequent first.
func (e *PanelError) Error() string {
	if len(e.Failures) == 0 {
		return "deliberation produced no votes"
	}
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("deliberation produced no votes: %s: %s", f.Proposer, f.Reason)
	}

	reasonCounts := make(map[string]int)
	for _, f := range e.Failures {
		reasonCounts[f.Reason]++
	}

	type reasonSummary struct {
		msg   string
		count int
	}
	var summaries []reasonSummary
	for msg, count := range reasonCounts {
		summaries = append(summaries, reasonSummary{msg, count})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].count != summaries[j].count {
			return summaries[i].count > summaries[j].count
		}
		return summaries[i].msg < summaries[j].msg
	})

	var parts []string
	for _, s := range summaries {
		if s.count == 1 {
			parts = append(parts, fmt.Sprintf("'%s' (1 persona)", s.msg))
		} else {
			parts = append(parts, fmt.Sprintf("'%s' (%d personas)", s.msg, s.count))
		}
	}

	return fmt.Sprintf(
		"deliberation produced no votes: %d invocations failed with %d error types: %s",
		len(e.Failures), len(reasonCounts), strings.Join(parts, ", "),
	)
}

// Unwrap returns ErrAllFailed, enabling errors.Is checks without exposing
// the concrete type.
func (e *PanelError) Unwrap() error {
	return ErrAllFailed
}
