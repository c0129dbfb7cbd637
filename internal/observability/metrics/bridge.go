// Package metrics provides Prometheus metrics for stream bridge operations
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BridgeMetrics contains Prometheus metrics for stream lifecycle and
// render-side activity.
type BridgeMetrics struct {
	registry *prometheus.Registry

	// Stream lifecycle metrics
	streamStarts    *prometheus.CounterVec
	nodeActivations *prometheus.CounterVec
	streamReleases  prometheus.Counter
	unexpectedDrops prometheus.Counter

	// Handoff metrics
	processorInstalls *prometheus.CounterVec

	// Render-side metrics, published as gauges from control-side snapshots
	renderedBlocks *prometheus.GaugeVec
	silentBlocks   *prometheus.GaugeVec
	hostState      *prometheus.GaugeVec

	// renderDuration is observed from the render callback itself, so it is a
	// plain histogram: no label resolution on the hot path.
	renderDuration prometheus.Histogram

	// Buffer arena metrics
	buffersInUse *prometheus.GaugeVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewBridgeMetrics creates and registers new bridge metrics
func NewBridgeMetrics(registry *prometheus.Registry) (*BridgeMetrics, error) {
	m := &BridgeMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *BridgeMetrics) initMetrics() error {
	m.streamStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_stream_starts_total",
			Help: "Total number of stream start attempts by status",
		},
		[]string{"status"},
	)

	m.nodeActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_node_activations_total",
			Help: "Total number of asynchronous render node activations by status",
		},
		[]string{"status"},
	)

	m.streamReleases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streambridge_stream_releases_total",
			Help: "Total number of completed stream teardowns",
		},
	)

	m.unexpectedDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "streambridge_unexpected_drops_total",
			Help: "Total number of streams whose render side became unreachable",
		},
	)

	m.processorInstalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streambridge_processor_installs_total",
			Help: "Total number of processor install attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.renderedBlocks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streambridge_rendered_blocks",
			Help: "Blocks rendered with an active processor, per stream",
		},
		[]string{"stream_id"},
	)

	m.silentBlocks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streambridge_silent_blocks",
			Help: "Blocks rendered as silence while awaiting a processor, per stream",
		},
		[]string{"stream_id"},
	)

	m.hostState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streambridge_host_state",
			Help: "Render host state per stream, 1 for the current state",
		},
		[]string{"stream_id", "state"},
	)

	m.renderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streambridge_render_block_duration_seconds",
			Help:    "Time taken to render one active block",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 7), // 1µs to 1s
		},
	)

	m.buffersInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streambridge_buffers_in_use",
			Help: "Block buffer handles currently held, per stream",
		},
		[]string{"stream_id"},
	)

	m.collectors = []prometheus.Collector{
		m.streamStarts,
		m.nodeActivations,
		m.streamReleases,
		m.unexpectedDrops,
		m.processorInstalls,
		m.renderedBlocks,
		m.silentBlocks,
		m.hostState,
		m.renderDuration,
		m.buffersInUse,
	}

	return nil
}

// Describe implements prometheus.Collector
func (m *BridgeMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *BridgeMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordStreamStart records a stream start attempt
func (m *BridgeMetrics) RecordStreamStart(status string) {
	m.streamStarts.WithLabelValues(status).Inc()
}

// RecordActivation records a render node activation outcome
func (m *BridgeMetrics) RecordActivation(status string) {
	m.nodeActivations.WithLabelValues(status).Inc()
}

// RecordStreamReleased records a completed teardown
func (m *BridgeMetrics) RecordStreamReleased() {
	m.streamReleases.Inc()
}

// RecordUnexpectedDrop records a stream found dead
func (m *BridgeMetrics) RecordUnexpectedDrop() {
	m.unexpectedDrops.Inc()
}

// RecordInstall records a processor install attempt by outcome
func (m *BridgeMetrics) RecordInstall(outcome string) {
	m.processorInstalls.WithLabelValues(outcome).Inc()
}

// UpdateRenderedBlocks publishes render-side block counters for a stream
func (m *BridgeMetrics) UpdateRenderedBlocks(streamID string, rendered, silent int64) {
	m.renderedBlocks.WithLabelValues(streamID).Set(float64(rendered))
	m.silentBlocks.WithLabelValues(streamID).Set(float64(silent))
}

// ObserveRenderDuration records how long one active block took to render
func (m *BridgeMetrics) ObserveRenderDuration(seconds float64) {
	m.renderDuration.Observe(seconds)
}

// UpdateHostState publishes the render host state for a stream
func (m *BridgeMetrics) UpdateHostState(streamID, state string) {
	// Reset both known states, then raise the current one, so the gauge
	// reads as a one-hot encoding.
	m.hostState.WithLabelValues(streamID, "awaiting-processor").Set(0)
	m.hostState.WithLabelValues(streamID, "active").Set(0)
	m.hostState.WithLabelValues(streamID, state).Set(1)
}

// UpdateBuffersInUse publishes the arena in-use counter for a stream
func (m *BridgeMetrics) UpdateBuffersInUse(streamID string, inUse int64) {
	m.buffersInUse.WithLabelValues(streamID).Set(float64(inUse))
}
