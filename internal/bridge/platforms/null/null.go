// Package null implements an audio platform without audio hardware. The
// self-clocked mode paces render callbacks at the block rate of a real
// device; the manual mode leaves pacing to the caller, which renders the
// stream as fast as Pump is called. Offline export and tests run on it.
package null

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
)

const component = "platform.null"

// DefaultSampleRate is the rate a null context negotiates when the caller
// requests 0.
const DefaultSampleRate = 48000

func getLogger() *slog.Logger {
	if l := logging.ForService("null"); l != nil {
		return l
	}
	return slog.Default()
}

// Platform creates null audio contexts.
type Platform struct {
	manual bool

	mu   sync.Mutex
	last *Context
}

// New returns a self-clocked Platform: once activated, the context invokes
// the render callback on its own goroutine at real-time block cadence.
func New() *Platform {
	return &Platform{}
}

// NewManual returns a Platform whose contexts render only when the caller
// drives them through Pump.
func NewManual() *Platform {
	return &Platform{manual: true}
}

// NewContext opens a null audio context.
func (p *Platform) NewContext(requestedSampleRate int) (bridge.PlatformContext, error) {
	rate := requestedSampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}

	c := &Context{
		logger:     getLogger(),
		sampleRate: rate,
		manual:     p.manual,
		clockStop:  make(chan struct{}),
		clockDone:  make(chan struct{}),
		out:        make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels),
	}

	p.mu.Lock()
	p.last = c
	p.mu.Unlock()

	return c, nil
}

// Context returns the most recently opened context, nil before the first
// NewContext call. Callers use it to reach Pump and Kill on a context that
// was opened through the bridge.
func (p *Platform) Context() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Context is an open null audio context.
type Context struct {
	logger     *slog.Logger
	sampleRate int
	manual     bool

	host atomic.Pointer[bridge.RenderHost]

	mu        sync.Mutex
	started   bool
	stopped   bool
	closed    bool
	clockStop chan struct{}
	clockDone chan struct{}

	out    []float32
	blocks atomic.Int64
}

// SampleRate returns the negotiated sample rate.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// ActivateRenderNode publishes host as the render target. In self-clocked
// mode it also starts the clock goroutine.
func (c *Context) ActivateRenderNode(ctx context.Context, host *bridge.RenderHost) (bridge.RenderNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Newf("audio context already closed").
			Component(component).
			Category(errors.CategoryState).
			Build()
	}

	c.host.Store(host)

	if !c.manual && !c.started {
		c.started = true
		go c.clock()
	}

	return &renderNode{ctx: c}, nil
}

// clock invokes the render callback at the cadence a real device would:
// one block every BlockFrames/sampleRate seconds.
func (c *Context) clock() {
	defer close(c.clockDone)

	interval := time.Duration(float64(bridge.BlockFrames) / float64(c.sampleRate) * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.clockStop:
			return
		case <-ticker.C:
			if !c.renderOnce() {
				return
			}
		}
	}
}

// renderOnce drives a single block through the host and reports the
// keep-alive signal.
func (c *Context) renderOnce() bool {
	host := c.host.Load()
	if host == nil {
		return true
	}
	keep := host.RenderBlock(nil, c.out, bridge.BlockFrames)
	c.blocks.Add(1)
	return keep
}

// Pump renders up to frames frames into dst and reports the keep-alive
// signal. It is the render driver for manual contexts: each call stands in
// for one device callback. Before activation it zero-fills dst, matching a
// device that is running but has no render target yet.
func (c *Context) Pump(dst []float32, frames int) bool {
	if frames > bridge.BlockFrames {
		frames = bridge.BlockFrames
	}
	if n := len(dst) / bridge.StreamOutputChannels; frames > n {
		frames = n
	}

	host := c.host.Load()
	if host == nil {
		clear(dst[:frames*bridge.StreamOutputChannels])
		return true
	}

	keep := host.RenderBlock(nil, dst[:frames*bridge.StreamOutputChannels], frames)
	c.blocks.Add(1)
	return keep
}

// Kill simulates the device disappearing: the clock stops and the render
// side is marked unreachable, so the control side sees the stream drop.
func (c *Context) Kill() {
	c.logger.Warn("null audio device killed")
	c.stopClock()
	if host := c.host.Load(); host != nil {
		host.MarkUnreachable()
	}
}

// Blocks returns the number of blocks rendered so far.
func (c *Context) Blocks() int64 {
	return c.blocks.Load()
}

// Close stops the clock and marks the context closed.
func (c *Context) Close() error {
	c.stopClock()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

// stopClock closes the clock channel once and waits for the goroutine to
// exit. Safe to call whether or not the clock ever started.
func (c *Context) stopClock() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	close(c.clockStop)
	c.mu.Unlock()

	if started {
		<-c.clockDone
	}
}

// renderNode is the activated attachment to a null context.
type renderNode struct {
	ctx *Context
}

// Disconnect stops the clock. The context stays open for reuse of Pump
// until it is closed.
func (n *renderNode) Disconnect() error {
	n.ctx.stopClock()
	return nil
}
