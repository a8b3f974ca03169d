package phase

import "errors"

// Sentinel kinds for phase errors. InvalidTransition reflects a caller-side
// logic bug and is the only error in the core surfaced as actionable.
var (
	ErrInvalidTransition = errors.New("invalid phase transition")
)
