package bridge

import (
	"sync"
	"sync/atomic"

	"github.com/audiograph/streambridge/internal/observability/metrics"
)

// MetricsCollector forwards bridge events to Prometheus when metrics are
// enabled. A nil or uninitialized collector is a no-op so the bridge works
// identically with observability switched off.
type MetricsCollector struct {
	metrics *metrics.BridgeMetrics
	enabled bool
}

var (
	globalMetrics     atomic.Pointer[MetricsCollector]
	globalMetricsOnce sync.Once
)

// InitMetrics installs the global metrics collector. Passing nil leaves
// metrics disabled. Only the first call has any effect.
func InitMetrics(metricsInstance *metrics.BridgeMetrics) {
	globalMetricsOnce.Do(func() {
		globalMetrics.Store(&MetricsCollector{
			metrics: metricsInstance,
			enabled: metricsInstance != nil,
		})
	})
}

// GetMetrics returns the global metrics collector, or a no-op collector if
// InitMetrics was never called.
func GetMetrics() *MetricsCollector {
	if mc := globalMetrics.Load(); mc != nil {
		return mc
	}
	return &MetricsCollector{enabled: false}
}

// RecordStreamStart records a StartStream attempt.
func (mc *MetricsCollector) RecordStreamStart(success bool) {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	mc.metrics.RecordStreamStart(status)
}

// RecordActivation records the outcome of an asynchronous node activation.
func (mc *MetricsCollector) RecordActivation(success bool) {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	mc.metrics.RecordActivation(status)
}

// RecordInstall records a processor install attempt with its outcome.
func (mc *MetricsCollector) RecordInstall(outcome string) {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.RecordInstall(outcome)
}

// RecordUnexpectedDrop records that a stream was found dead.
func (mc *MetricsCollector) RecordUnexpectedDrop() {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.RecordUnexpectedDrop()
}

// RecordStreamReleased records a completed teardown.
func (mc *MetricsCollector) RecordStreamReleased() {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.RecordStreamReleased()
}

// ObserveRenderDuration records the time one active block took to render.
// This is the one collector method called from the render callback; the
// histogram has no labels, so the call only touches atomic bucket counters.
func (mc *MetricsCollector) ObserveRenderDuration(seconds float64) {
	if mc == nil || !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.ObserveRenderDuration(seconds)
}

// UpdateRenderStats publishes a snapshot of render-side counters. Called
// periodically from the control side, never from the render callback.
func (mc *MetricsCollector) UpdateRenderStats(streamID string, stats HostStats) {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.UpdateRenderedBlocks(streamID, stats.BlocksRendered, stats.SilentBlocks)
	mc.metrics.UpdateHostState(streamID, stats.State.String())
}

// UpdateArenaStats publishes buffer arena counters.
func (mc *MetricsCollector) UpdateArenaStats(streamID string, stats ArenaStats) {
	if !mc.enabled || mc.metrics == nil {
		return
	}
	mc.metrics.UpdateBuffersInUse(streamID, stats.InUse)
}
