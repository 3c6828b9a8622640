package ballot

import "slices"

// Round is the complete outcome of one debate round. Every persona on the
// panel appears exactly once, either in Votes or in Failures. Entropy is a
// disagreement score in [0, 1] computed over the round's vote contents,
// 0 meaning total agreement.
type Round struct {
	Index    int       `json:"index"`
	Votes    []Vote    `json:"votes"`
	Failures []Failure `json:"failures,omitempty"`
	Entropy  float64   `json:"entropy"`
}

// Clone returns a deep copy of the round. Votes and Failures are value
// types, so cloning the slices is sufficient.
func (r Round) Clone() Round {
	r.Votes = slices.Clone(r.Votes)
	r.Failures = slices.Clone(r.Failures)
	return r
}
