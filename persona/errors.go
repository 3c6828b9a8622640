package persona

import "errors"

// Sentinel errors for the persona registry.
var (
	ErrNotFound  = errors.New("persona not found")
	ErrExists    = errors.New("persona already registered")
	ErrEmptyName = errors.New("persona name is empty")
)
