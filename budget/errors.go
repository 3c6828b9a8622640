package budget

import "errors"

// ErrExceeded indicates a deliberation cannot fit within the configured
// budget even after downgrading to a single round.
var ErrExceeded = errors.New("budget exceeded")
