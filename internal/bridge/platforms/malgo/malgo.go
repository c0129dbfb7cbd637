// Package malgo drives stream playback through the miniaudio bindings. It
// is the default platform on every operating system miniaudio supports.
package malgo

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
)

const component = "platform.malgo"

func getLogger() *slog.Logger {
	if l := logging.ForService("malgo"); l != nil {
		return l
	}
	return slog.Default()
}

// Platform creates miniaudio playback contexts.
type Platform struct {
	deviceName string
}

// New returns a Platform that renders to the named output device. An empty
// name selects the system default.
func New(deviceName string) *Platform {
	return &Platform{deviceName: deviceName}
}

// NewContext opens a miniaudio context and initializes the playback device
// so the negotiated sample rate is known before any callback runs. The
// device is not started here; ActivateRenderNode does that.
func (p *Platform) NewContext(requestedSampleRate int) (bridge.PlatformContext, error) {
	logger := getLogger()

	malgoCtx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "init_context").
			Context("os", runtime.GOOS).
			Build()
	}

	c := &audioContext{
		logger:  logger,
		ctx:     malgoCtx,
		scratch: make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = bridge.StreamOutputChannels
	deviceConfig.SampleRate = uint32(requestedSampleRate)
	deviceConfig.PeriodSizeInFrames = bridge.BlockFrames
	deviceConfig.Alsa.NoMMap = 1

	if p.deviceName != "" {
		infos, err := malgoCtx.Devices(malgo.Playback)
		if err != nil {
			_ = malgoCtx.Uninit()
			malgoCtx.Free()
			return nil, errors.New(err).
				Component(component).
				Category(errors.CategoryPlatform).
				Context("operation", "enumerate_devices").
				Build()
		}
		info, err := selectOutputDevice(infos, p.deviceName)
		if err != nil {
			_ = malgoCtx.Uninit()
			malgoCtx.Free()
			return nil, err
		}
		deviceConfig.Playback.DeviceID = info.ID.Pointer()
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: c.onSendFrames,
		Stop: c.onDeviceStop,
	})
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "init_device").
			Context("device_name", p.deviceName).
			Build()
	}

	c.device = device
	c.sampleRate = int(device.SampleRate())

	return c, nil
}

// audioContext is an open miniaudio context with its playback device. The
// device exists from NewContext on; the render host arrives later through
// ActivateRenderNode, so the data callback reads it through an atomic
// pointer and renders silence until it is set.
type audioContext struct {
	logger *slog.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	sampleRate int

	host    atomic.Pointer[bridge.RenderHost]
	scratch []float32

	dead        atomic.Bool
	tearingDown atomic.Bool
	stopOnce    sync.Once
}

// SampleRate returns the rate the device actually opened with.
func (c *audioContext) SampleRate() int {
	return c.sampleRate
}

// ActivateRenderNode publishes host to the data callback and starts the
// playback device.
func (c *audioContext) ActivateRenderNode(ctx context.Context, host *bridge.RenderHost) (bridge.RenderNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.host.Store(host)
	if err := c.device.Start(); err != nil {
		c.host.Store(nil)
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "start_device").
			Build()
	}

	return &renderNode{ctx: c}, nil
}

// Close uninitializes the device and the context. Stopping the device is
// implied by Uninit.
func (c *audioContext) Close() error {
	c.tearingDown.Store(true)

	if c.device != nil {
		c.device.Uninit()
	}

	err := c.ctx.Uninit()
	c.ctx.Free()
	if err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "uninit_context").
			Build()
	}
	return nil
}

// onSendFrames is the miniaudio data callback. pOutput holds room for
// framecount interleaved F32 frames.
func (c *audioContext) onSendFrames(pOutput, pInput []byte, framecount uint32) {
	c.renderInto(pOutput, int(framecount))
}

// renderInto fills dst with framecount frames of little-endian F32 samples.
// Before the render host is published, and after the stream has been marked
// dead, the whole buffer is zeroed. The device may hand over more frames
// than one block; those are rendered as consecutive blocks.
func (c *audioContext) renderInto(dst []byte, frames int) {
	host := c.host.Load()
	if host == nil || c.dead.Load() {
		clear(dst)
		return
	}

	off := 0
	for frames > 0 {
		n := min(frames, bridge.BlockFrames)
		block := c.scratch[:n*bridge.StreamOutputChannels]
		keep := host.RenderBlock(nil, block, n)
		off += encodeF32LE(dst[off:], block)
		frames -= n
		if !keep {
			c.dead.Store(true)
			clear(dst[off:])
			c.requestStop()
			return
		}
	}
}

// requestStop stops the device from outside the callback thread. miniaudio
// does not allow a device to be stopped from inside its own data callback.
func (c *audioContext) requestStop() {
	c.stopOnce.Do(func() {
		dev := c.device
		if dev == nil {
			return
		}
		go func() { _ = dev.Stop() }()
	})
}

// onDeviceStop fires whenever the device stops, including the stop we asked
// for during teardown. Only a stop nobody requested counts as device loss.
func (c *audioContext) onDeviceStop() {
	if c.tearingDown.Load() || c.dead.Load() {
		return
	}

	c.logger.Warn("audio device stopped unexpectedly")
	if host := c.host.Load(); host != nil {
		host.MarkUnreachable()
	}
}

// renderNode is the activated playback attachment.
type renderNode struct {
	ctx *audioContext
}

// Disconnect stops the playback device. The device and context stay
// initialized until the context is closed.
func (n *renderNode) Disconnect() error {
	n.ctx.tearingDown.Store(true)

	if !n.ctx.device.IsStarted() {
		return nil
	}
	if err := n.ctx.device.Stop(); err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryPlatform).
			Context("operation", "stop_device").
			Build()
	}
	return nil
}

// encodeF32LE writes src as little-endian float32 bytes into dst and
// returns the number of bytes written.
func encodeF32LE(dst []byte, src []float32) int {
	if n := len(dst) / 4; len(src) > n {
		src = src[:n]
	}
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
	return len(src) * 4
}
