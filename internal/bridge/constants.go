package bridge

// Stream protocol constants
const (
	// BlockFrames is the fixed number of sample frames processed per render
	// callback. It is shared between the control and render sides and never
	// changes for the lifetime of a stream.
	BlockFrames = 128

	// StreamInputChannels is the number of input channels captured from the
	// platform. This configuration renders output only.
	StreamInputChannels = 0

	// StreamOutputChannels is the number of interleaved output channels
	// delivered to the platform per frame.
	StreamOutputChannels = 2

	// DefaultOutputDeviceName is the name reported for the synthetic default
	// output device.
	DefaultOutputDeviceName = "default output"
)

// Component identifier for bridge errors
const ComponentBridge = "bridge"
