package bridge

// Processor executes one block of the audio graph. A Processor is built on
// the control side, handed to the render side exactly once and from then on
// owned exclusively by the render callback. Implementations must not block,
// lock or allocate inside ProcessBlock.
type Processor interface {
	// ProcessBlock renders frames sample frames. input holds
	// InputChannels*frames interleaved samples (it is empty when the stream
	// has no input channels), output has room for OutputChannels*frames
	// interleaved samples and must be fully written. frames is never larger
	// than BlockFrames.
	ProcessBlock(input, output []float32, frames int)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(input, output []float32, frames int)

// ProcessBlock calls f.
func (f ProcessorFunc) ProcessBlock(input, output []float32, frames int) {
	f(input, output, frames)
}
