package bridge

import (
	"sync/atomic"
	"time"
)

// HostState identifies the render host's processor state.
type HostState int32

const (
	// HostAwaitingProcessor is the initial state: no processor has arrived
	// yet and every callback renders silence.
	HostAwaitingProcessor HostState = iota

	// HostActive means the processor has been received and drives every
	// subsequent block.
	HostActive
)

// String returns the state name.
func (s HostState) String() string {
	switch s {
	case HostAwaitingProcessor:
		return "awaiting-processor"
	case HostActive:
		return "active"
	default:
		return "unknown"
	}
}

// HostStats is a snapshot of render-side counters, readable from any
// goroutine.
type HostStats struct {
	State          HostState
	BlocksRendered int64
	SilentBlocks   int64
}

// RenderHost lives on the render thread. It owns the receiving end of the
// Handoff, the shared BlockBuffers and a reference to the Liveness flag.
// The platform callback drives it through RenderBlock; the host itself owns
// no locks and never allocates after construction.
//
// The processor-present state transitions exactly once, from awaiting to
// active, on the first callback that observes the handoff value.
type RenderHost struct {
	handoff *Handoff
	alive   *Liveness
	buffers *BlockBuffers

	// metrics is resolved once at construction so the callback never looks
	// up the global collector.
	metrics *MetricsCollector

	// processor is owned exclusively by the render thread once received.
	processor Processor

	state          atomic.Int32
	blocksRendered atomic.Int64
	silentBlocks   atomic.Int64
}

// NewRenderHost bundles the render-side ends of a stream. The host starts
// in HostAwaitingProcessor.
func NewRenderHost(handoff *Handoff, alive *Liveness, buffers *BlockBuffers) *RenderHost {
	return &RenderHost{
		handoff: handoff,
		alive:   alive,
		buffers: buffers,
		metrics: GetMetrics(),
	}
}

// State returns the current processor state. Safe from any goroutine.
func (h *RenderHost) State() HostState {
	return HostState(h.state.Load())
}

// Stats returns a snapshot of the render counters. Safe from any goroutine.
func (h *RenderHost) Stats() HostStats {
	return HostStats{
		State:          h.State(),
		BlocksRendered: h.blocksRendered.Load(),
		SilentBlocks:   h.silentBlocks.Load(),
	}
}

// Buffers returns the shared block regions owned by this host.
func (h *RenderHost) Buffers() *BlockBuffers {
	return h.buffers
}

// RenderBlock produces one block of output. The platform callback calls it
// with the device's interleaved input samples (nil when the stream has no
// inputs), the interleaved output destination and the frame count for this
// block. frames must not exceed BlockFrames; a short final block is the
// platform's responsibility to signal.
//
// Before a processor arrives every call is a silent pass: the shared output
// region and the destination are zero-filled. A missing processor is a
// normal startup condition, never an error.
//
// The return value is the keep-alive signal: true while the stream should
// keep running, false once the control side marked it dead. Platforms use
// it to stop invoking the callback.
func (h *RenderHost) RenderBlock(input, output []float32, frames int) bool {
	if frames > BlockFrames {
		frames = BlockFrames
	}
	if frames < 0 {
		frames = 0
	}

	if HostState(h.state.Load()) == HostAwaitingProcessor {
		if p, ok := h.handoff.TryReceive(); ok {
			h.processor = p
			h.state.Store(int32(HostActive))
		}
	}

	outCount := min(frames*h.buffers.outputChannels, len(output))

	if HostState(h.state.Load()) != HostActive {
		h.buffers.SilenceOutput()
		clear(output[:outCount])
		h.silentBlocks.Add(1)
		return h.alive.IsAlive()
	}

	start := time.Now()

	if inCount := min(frames*h.buffers.inputChannels, len(input)); inCount > 0 {
		copy(h.buffers.input[:inCount], input[:inCount])
	}

	in := h.buffers.input[:frames*h.buffers.inputChannels]
	out := h.buffers.output[:frames*h.buffers.outputChannels]
	h.processor.ProcessBlock(in, out, frames)

	copy(output[:outCount], out)
	h.blocksRendered.Add(1)
	h.metrics.ObserveRenderDuration(time.Since(start).Seconds())
	return h.alive.IsAlive()
}

// MarkUnreachable records that the render side will never consume the
// handoff value: the platform stopped invoking the callback or activation
// failed before it ever started. Subsequent installs fail observably, which
// is how the control side learns the stream is dead. Idempotent.
func (h *RenderHost) MarkUnreachable() {
	h.handoff.CloseReceiver()
}
