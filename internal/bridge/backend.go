package bridge

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
)

// Config describes a stream to be started.
type Config struct {
	// SampleRate is the requested sample rate in Hz. 0 lets the platform
	// negotiate its default. The platform-reported rate in StreamInfo is
	// authoritative.
	SampleRate int
}

// Backend is the control-side object of a stream, one per active stream.
// It owns the sending end of the Handoff, orchestrates the asynchronous
// bootstrap that activates the render callback and owns teardown. All
// methods are safe for use from the control goroutine; none of them ever
// waits on the render side.
type Backend struct {
	logger   *slog.Logger
	streamID string

	pctx    PlatformContext
	handoff *Handoff
	alive   *Liveness
	arena   *BufferArena
	buffers *BlockBuffers
	host    *RenderHost

	mu            sync.Mutex // guards node and activationErr
	node          RenderNode
	activationErr error

	dropped  atomic.Bool
	released atomic.Bool

	ready           chan struct{} // closed when activation resolves either way
	cancelBootstrap context.CancelFunc
}

func getLogger() *slog.Logger {
	if l := logging.ForService("bridge"); l != nil {
		return l
	}
	return slog.Default()
}

// StartStream validates cfg, opens the platform audio context, allocates
// the shared block buffers and launches the asynchronous render node
// activation. It returns as soon as the context is open; activation
// resolves in the background and its failures are logged, not returned,
// because the platform's activation is inherently asynchronous. WaitReady
// exposes the outcome to callers that want to await it.
//
// The returned StreamInfo carries the platform-negotiated sample rate and
// the fixed block and channel constants.
func StartStream(cfg Config, platform Platform) (*Backend, StreamInfo, error) {
	if platform == nil {
		return nil, StreamInfo{}, configError("no platform given", cfg.SampleRate)
	}
	if cfg.SampleRate < 0 {
		return nil, StreamInfo{}, configError("requested sample rate must not be negative", cfg.SampleRate)
	}

	streamID := uuid.New().String()
	logger := getLogger().With("stream_id", streamID)

	pctx, err := platform.NewContext(cfg.SampleRate)
	if err != nil {
		e := initializationError(err, cfg.SampleRate)
		logger.Error("failed to open audio context", "error", e)
		GetMetrics().RecordStreamStart(false)
		return nil, StreamInfo{}, e
	}

	arena := NewBufferArena()
	buffers, err := arena.AllocateBlock(StreamInputChannels, StreamOutputChannels)
	if err != nil {
		if cerr := pctx.Close(); cerr != nil {
			logger.Warn("failed to close audio context after buffer allocation failure", "error", cerr)
		}
		GetMetrics().RecordStreamStart(false)
		return nil, StreamInfo{}, err
	}

	handoff := NewHandoff()
	alive := NewLiveness()
	host := NewRenderHost(handoff, alive, buffers)

	info := StreamInfo{
		SampleRate:       pctx.SampleRate(),
		MaxBlockFrames:   BlockFrames,
		InputChannels:    StreamInputChannels,
		OutputChannels:   StreamOutputChannels,
		OutputDeviceName: DefaultOutputDeviceName,
	}

	bctx, cancel := context.WithCancel(context.Background())
	b := &Backend{
		logger:          logger,
		streamID:        streamID,
		pctx:            pctx,
		handoff:         handoff,
		alive:           alive,
		arena:           arena,
		buffers:         buffers,
		host:            host,
		ready:           make(chan struct{}),
		cancelBootstrap: cancel,
	}

	go b.bootstrap(bctx)

	logger.Info("stream started",
		"sample_rate", info.SampleRate,
		"requested_sample_rate", cfg.SampleRate,
		"block_frames", BlockFrames,
		"output_channels", StreamOutputChannels)
	GetMetrics().RecordStreamStart(true)

	return b, info, nil
}

// bootstrap runs once per stream on its own goroutine. Activation failures
// are terminal for the stream: the handoff receiver is closed so a later
// install surfaces the death through PollStatus.
func (b *Backend) bootstrap(ctx context.Context) {
	defer close(b.ready)

	node, err := b.pctx.ActivateRenderNode(ctx, b.host)
	if err != nil {
		b.host.MarkUnreachable()

		if b.released.Load() && errors.Is(err, context.Canceled) {
			b.logger.Debug("render node activation cancelled by teardown")
			b.mu.Lock()
			b.activationErr = err
			b.mu.Unlock()
			return
		}

		e := nodeCreationError(err, b.streamID)
		b.logger.Error("render node activation failed", "error", e)
		GetMetrics().RecordActivation(false)

		b.mu.Lock()
		b.activationErr = e
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	if b.released.Load() {
		b.mu.Unlock()
		// Torn down while activation was in flight; the node was never
		// published, so it is disconnected here.
		if derr := node.Disconnect(); derr != nil {
			b.logger.Warn("failed to disconnect render node after teardown", "error", derr)
		}
		return
	}
	b.node = node
	b.mu.Unlock()

	GetMetrics().RecordActivation(true)
	b.logger.Info("render node active")
}

// StreamID returns the unique identifier assigned to this stream.
func (b *Backend) StreamID() string {
	return b.streamID
}

// WaitReady blocks until the asynchronous activation resolves or ctx is
// done. It returns nil once the render node is active, the recorded
// activation error if activation failed, or the context error. StartStream
// callers that need a running callback before proceeding use this as their
// readiness point; polling callers can skip it entirely.
func (b *Backend) WaitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.activationErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InstallProcessor pushes p through the Handoff to the render side. It may
// be called at any time after StartStream, including before activation
// completes; the render callback picks the processor up on its first
// invocation after the push.
//
// If the render side is gone the processor is dropped and the condition is
// recorded so that subsequent PollStatus calls report the death. A second
// install on the same stream is rejected by the single-use handoff and only
// logged; it does not mark the stream dropped.
func (b *Backend) InstallProcessor(p Processor) {
	err := b.handoff.Send(p)
	switch {
	case err == nil:
		b.logger.Debug("processor installed")
		GetMetrics().RecordInstall("success")
	case errors.Is(err, ErrReceiverGone):
		b.dropped.Store(true)
		b.logger.Warn("processor handoff failed, render side unreachable")
		GetMetrics().RecordInstall("receiver_gone")
		GetMetrics().RecordUnexpectedDrop()
	case errors.Is(err, ErrAlreadySent):
		b.logger.Warn("processor already installed, duplicate ignored")
		GetMetrics().RecordInstall("duplicate")
	}
}

// PollStatus reports stream health. It returns ErrUnexpectedDrop once the
// render side has become unreachable, whether that was observed by a failed
// install or by the platform closing the receiver after the processor was
// already running; the caller must treat the stream as dead and release it.
// This is a pull-based check because the platform offers no synchronous
// callback-death notification. It never blocks and never allocates.
func (b *Backend) PollStatus() error {
	if b.dropped.Load() {
		return ErrUnexpectedDrop
	}
	if b.handoff.ReceiverGone() && !b.released.Load() {
		if b.dropped.CompareAndSwap(false, true) {
			GetMetrics().RecordUnexpectedDrop()
		}
		return ErrUnexpectedDrop
	}
	return nil
}

// Stats returns a snapshot of the render-side counters.
func (b *Backend) Stats() HostStats {
	return b.host.Stats()
}

// BufferStats returns a snapshot of the stream's buffer arena counters.
func (b *Backend) BufferStats() ArenaStats {
	return b.arena.Stats()
}

// Close tears the stream down: it marks the liveness flag dead, cancels an
// unresolved activation, disconnects the render node and closes the audio
// context. Platform errors on the way down are logged, never propagated;
// teardown always completes from the caller's point of view. Close is
// idempotent and safe to call no matter how far bootstrap got, whether a
// processor was ever installed, or whether the render side ever ran.
func (b *Backend) Close() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}

	b.alive.MarkDead()
	b.cancelBootstrap()

	b.mu.Lock()
	node := b.node
	b.node = nil
	b.mu.Unlock()

	if node != nil {
		if err := node.Disconnect(); err != nil {
			b.logger.Warn("failed to disconnect render node", "error", err)
		}
	}

	if err := b.pctx.Close(); err != nil {
		b.logger.Warn("failed to close audio context", "error", err)
	}

	b.buffers.Release()
	GetMetrics().RecordStreamReleased()
	b.logger.Info("stream released")
}
