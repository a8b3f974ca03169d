package llm

import "errors"

// Sentinel kinds for collaborator failures. Both are absorbed by callers'
// deterministic fallbacks, never surfaced to users.
var (
	ErrUnavailable = errors.New("model collaborator unavailable")
	ErrMalformed   = errors.New("model returned unusable data")
)
