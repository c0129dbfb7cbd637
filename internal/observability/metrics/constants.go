package metrics

import "time"

const (
	// ShutdownTimeout is the timeout for graceful shutdown operations.
	ShutdownTimeout = 5 * time.Second

	// StatsPublishInterval is how often control-side code publishes
	// render-side counter snapshots to the gauges.
	StatsPublishInterval = 5 * time.Second
)
