package bridge

import (
	"sync/atomic"

	"github.com/audiograph/streambridge/internal/errors"
)

// BlockBuffers holds the fixed shared sample regions for one stream: an
// input region of inputChannels*BlockFrames and an output region of
// outputChannels*BlockFrames interleaved float32 samples. Both regions are
// zero-filled at allocation and never resized. After activation only the
// render side touches their contents; between callbacks the contents are
// undefined because every callback overwrites them.
//
// The regions intentionally outlive the Backend that allocated them: the
// platform callback may still be mid-block while the control side tears
// down, so Release only marks the tracked handle and leaves the memory
// valid until the garbage collector reclaims it after the last reference
// drops.
type BlockBuffers struct {
	arena          *BufferArena
	input          []float32
	output         []float32
	inputChannels  int
	outputChannels int
	released       atomic.Bool
}

// Input returns the shared input region. Its length is
// InputChannels()*BlockFrames and may be zero.
func (b *BlockBuffers) Input() []float32 {
	return b.input
}

// Output returns the shared output region of OutputChannels()*BlockFrames
// samples.
func (b *BlockBuffers) Output() []float32 {
	return b.output
}

// InputChannels returns the number of input channels the regions were
// sized for.
func (b *BlockBuffers) InputChannels() int {
	return b.inputChannels
}

// OutputChannels returns the number of output channels the regions were
// sized for.
func (b *BlockBuffers) OutputChannels() int {
	return b.outputChannels
}

// SilenceOutput zero-fills the output region. Allocation-free, callable
// from the render callback.
func (b *BlockBuffers) SilenceOutput() {
	clear(b.output)
}

// Release marks the buffers as reclaimed in the owning arena. It is
// idempotent; only the first call is counted. It reports whether this call
// performed the release.
func (b *BlockBuffers) Release() bool {
	if !b.released.CompareAndSwap(false, true) {
		return false
	}
	if b.arena != nil {
		b.arena.releases.Add(1)
		b.arena.inUse.Add(-1)
	}
	return true
}

// Released reports whether Release has been called.
func (b *BlockBuffers) Released() bool {
	return b.released.Load()
}

// BufferArena allocates and tracks BlockBuffers. The counters make buffer
// lifetime observable so a handle that is never released shows up in stats
// instead of silently leaking.
type BufferArena struct {
	allocations atomic.Int64
	releases    atomic.Int64
	inUse       atomic.Int64
}

// ArenaStats is a snapshot of arena counters.
type ArenaStats struct {
	Allocations int64
	Releases    int64
	InUse       int64
}

// NewBufferArena creates an empty arena.
func NewBufferArena() *BufferArena {
	return &BufferArena{}
}

// AllocateBlock allocates zero-filled block regions for the given channel
// counts. Channel counts must not be negative; zero is valid and yields an
// empty region.
func (a *BufferArena) AllocateBlock(inputChannels, outputChannels int) (*BlockBuffers, error) {
	if inputChannels < 0 || outputChannels < 0 {
		return nil, errors.Newf("channel counts must not be negative, got in=%d out=%d", inputChannels, outputChannels).
			Component(ComponentBridge).
			Category(errors.CategoryValidation).
			Context("operation", "allocate-block").
			Build()
	}

	b := &BlockBuffers{
		arena:          a,
		input:          make([]float32, inputChannels*BlockFrames),
		output:         make([]float32, outputChannels*BlockFrames),
		inputChannels:  inputChannels,
		outputChannels: outputChannels,
	}
	a.allocations.Add(1)
	a.inUse.Add(1)
	return b, nil
}

// Stats returns a snapshot of the arena counters.
func (a *BufferArena) Stats() ArenaStats {
	return ArenaStats{
		Allocations: a.allocations.Load(),
		Releases:    a.releases.Load(),
		InUse:       a.inUse.Load(),
	}
}
