package bridge

import "context"

// Platform abstracts the host audio system that will drive the render
// callback. Implementations live in the platforms subpackages; tests use
// in-memory fakes.
type Platform interface {
	// NewContext opens the platform audio context. requestedSampleRate is a
	// hint; 0 lets the platform choose. The context's negotiated sample rate
	// is authoritative over the request.
	NewContext(requestedSampleRate int) (PlatformContext, error)
}

// PlatformContext is an open audio context on a specific platform.
type PlatformContext interface {
	// SampleRate returns the negotiated sample rate in Hz.
	SampleRate() int

	// ActivateRenderNode asynchronously stands up the real-time callback and
	// transfers host into it. Once it returns successfully the platform
	// invokes host.RenderBlock on its own schedule until the node is
	// disconnected or the keep-alive signal turns false. The context cancels
	// an activation still in flight.
	ActivateRenderNode(ctx context.Context, host *RenderHost) (RenderNode, error)

	// Close shuts the context down. Callbacks already executing are not
	// interrupted; only future invocations are prevented.
	Close() error
}

// RenderNode is an activated real-time callback attachment.
type RenderNode interface {
	// Disconnect detaches the node from the platform's output graph.
	Disconnect() error
}

// StreamInfo describes a stream as negotiated at start time.
type StreamInfo struct {
	// SampleRate is the platform-negotiated rate in Hz, not necessarily the
	// requested one.
	SampleRate int

	// MaxBlockFrames is the fixed number of frames per render callback.
	MaxBlockFrames int

	// InputChannels and OutputChannels are the channel counts the shared
	// buffers were sized for.
	InputChannels  int
	OutputChannels int

	// InputDeviceName names the capture device. Streams are output-only, so
	// it is always empty.
	InputDeviceName string

	// OutputDeviceName names the output device the stream renders to.
	OutputDeviceName string
}

// DeviceInfo describes an audio device visible to the caller.
type DeviceInfo struct {
	Name      string
	Channels  int
	IsDefault bool
}

// AvailableInputDevices returns the discoverable input devices. No real
// input devices exist in this model.
func AvailableInputDevices() []DeviceInfo {
	return []DeviceInfo{}
}

// AvailableOutputDevices returns the discoverable output devices: exactly
// one synthetic default output.
func AvailableOutputDevices() []DeviceInfo {
	return []DeviceInfo{
		{
			Name:      DefaultOutputDeviceName,
			Channels:  StreamOutputChannels,
			IsDefault: true,
		},
	}
}
