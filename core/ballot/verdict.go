package ballot

import "slices"

// Verdict is the aggregated outcome of a round: the winning position, how
// dominant it was, and any dissent strong enough to report. Votes carries
// the full ballot the verdict was computed from so callers can audit it.
type Verdict struct {
	Text       string  `json:"verdict"`
	Confidence float64 `json:"confidence_score"`
	Dissent    string  `json:"dissent,omitempty"`
	Votes      []Vote  `json:"votes"`
}

// Clone returns a deep copy of the verdict.
func (v Verdict) Clone() Verdict {
	v.Votes = slices.Clone(v.Votes)
	return v
}
