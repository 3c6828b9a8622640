package aggregate

import (
	"strings"
	"unicode"

	"github.com/coreason/council/core/ballot"
)

// Entropy scores the lexical divergence of a round's votes as 1 minus the
// mean pairwise Jaccard similarity of their token sets. 0 means total
// agreement, 1 total divergence. Fewer than two votes score 0.
func Entropy(votes []ballot.Vote) float64 {
	if len(votes) < 2 {
		return 0
	}

	sets := make([]map[string]struct{}, len(votes))
	for i, v := range votes {
		sets[i] = tokenSet(v.Content)
	}

	var sum float64
	var pairs int
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			sum += jaccard(sets[i], sets[j])
			pairs++
		}
	}

	return 1 - sum/float64(pairs)
}

func tokenSet(s string) map[string]struct{} {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes intersection over union. Two empty sets count as
// identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
