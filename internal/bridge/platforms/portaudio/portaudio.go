// Package portaudio drives stream playback through PortAudio. It always
// renders to the system default output device.
package portaudio

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
)

const component = "platform.portaudio"

func getLogger() *slog.Logger {
	if l := logging.ForService("portaudio"); l != nil {
		return l
	}
	return slog.Default()
}

// Platform creates PortAudio playback contexts.
type Platform struct{}

// New returns a PortAudio Platform.
func New() *Platform {
	return &Platform{}
}

// NewContext initializes PortAudio and opens the default output stream.
// When requestedSampleRate is 0 the default device's preferred rate is
// used. The stream is opened but not started; ActivateRenderNode starts it.
func (p *Platform) NewContext(requestedSampleRate int) (bridge.PlatformContext, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "initialize").
			Build()
	}

	rate := requestedSampleRate
	if rate == 0 {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			_ = portaudio.Terminate()
			return nil, errors.New(err).
				Component(component).
				Category(errors.CategoryPlatform).
				Context("operation", "default_output_device").
				Build()
		}
		rate = int(dev.DefaultSampleRate)
	}

	c := &audioContext{
		logger:     getLogger(),
		sampleRate: rate,
	}

	stream, err := portaudio.OpenDefaultStream(
		0,                           // no input channels
		bridge.StreamOutputChannels, // output channels
		float64(rate),               // sample rate
		bridge.BlockFrames,          // frames per buffer
		c.render,                    // callback
	)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "open_stream").
			Context("sample_rate", rate).
			Build()
	}
	c.stream = stream

	return c, nil
}

// audioContext is an open PortAudio stream. The render host arrives through
// ActivateRenderNode, so the callback reads it through an atomic pointer
// and renders silence until it is set.
type audioContext struct {
	logger     *slog.Logger
	stream     *portaudio.Stream
	sampleRate int

	host atomic.Pointer[bridge.RenderHost]

	dead        atomic.Bool
	tearingDown atomic.Bool
	stopOnce    sync.Once
}

// SampleRate returns the rate the stream was opened with.
func (c *audioContext) SampleRate() int {
	return c.sampleRate
}

// ActivateRenderNode publishes host to the callback and starts the stream.
func (c *audioContext) ActivateRenderNode(ctx context.Context, host *bridge.RenderHost) (bridge.RenderNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.host.Store(host)
	if err := c.stream.Start(); err != nil {
		c.host.Store(nil)
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "start_stream").
			Build()
	}

	return &renderNode{ctx: c}, nil
}

// Close closes the stream and terminates PortAudio. Initialize and
// Terminate are reference counted by PortAudio, so each context balances
// its own pair.
func (c *audioContext) Close() error {
	c.tearingDown.Store(true)

	err := c.stream.Close()
	_ = portaudio.Terminate()
	if err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "close_stream").
			Build()
	}
	return nil
}

// render is the PortAudio callback. out holds room for len(out)/channels
// interleaved frames, which may span several blocks.
func (c *audioContext) render(out []float32) {
	host := c.host.Load()
	if host == nil || c.dead.Load() {
		clear(out)
		return
	}

	frames := len(out) / bridge.StreamOutputChannels
	off := 0
	for frames > 0 {
		n := min(frames, bridge.BlockFrames)
		end := off + n*bridge.StreamOutputChannels
		keep := host.RenderBlock(nil, out[off:end], n)
		off = end
		frames -= n
		if !keep {
			c.dead.Store(true)
			clear(out[off:])
			c.requestStop()
			return
		}
	}
}

// requestStop stops the stream from outside the callback thread. PortAudio
// does not allow a stream to be stopped from inside its own callback.
func (c *audioContext) requestStop() {
	c.stopOnce.Do(func() {
		stream := c.stream
		if stream == nil {
			return
		}
		go func() {
			if err := stream.Stop(); err != nil {
				c.logger.Error("failed to stop audio stream", "error", err)
			}
		}()
	})
}

// renderNode is the activated playback attachment.
type renderNode struct {
	ctx *audioContext
}

// Disconnect stops the stream. The stream stays open until the context is
// closed.
func (n *renderNode) Disconnect() error {
	n.ctx.tearingDown.Store(true)

	if n.ctx.dead.Load() {
		return nil
	}
	if err := n.ctx.stream.Stop(); err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "stop_stream").
			Build()
	}
	return nil
}
