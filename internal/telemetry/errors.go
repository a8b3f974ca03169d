package telemetry

import "errors"

// Sentinel kinds for telemetry errors.
var (
	ErrNotInitialized = errors.New("telemetry client not initialized")
)
