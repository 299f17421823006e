package app

import "time"

// opIDLayout stamps operation IDs with a compact UTC timestamp.
const opIDLayout = "20060102T150405Z"

// NewOpID returns the identifier for one CLI invocation. Every log line
// the run emits carries it, so a run's lines can be pulled out of the
// shared log file.
func NewOpID(now time.Time) string {
	return now.UTC().Format(opIDLayout)
}
