package synth

import (
	"sync/atomic"

	"github.com/audiograph/streambridge/internal/bridge"
)

// Timed passes blocks through an inner processor until a total frame budget
// is exhausted, then renders silence. The control side polls Done to learn
// that playback has finished; the render side never stops on its own.
type Timed struct {
	inner     bridge.Processor
	remaining int64 // owned by the render side
	done      atomic.Bool
}

// NewTimed wraps inner with a frame budget.
func NewTimed(inner bridge.Processor, frames int64) *Timed {
	t := &Timed{inner: inner, remaining: frames}
	if frames <= 0 {
		t.done.Store(true)
	}
	return t
}

// Done reports whether the budget has been used up. Safe from any
// goroutine.
func (t *Timed) Done() bool {
	return t.done.Load()
}

// ProcessBlock renders through the inner processor while budget remains and
// zero-fills everything past it.
func (t *Timed) ProcessBlock(input, output []float32, frames int) {
	if t.done.Load() {
		clear(output)
		return
	}

	t.inner.ProcessBlock(input, output, frames)

	if int64(frames) < t.remaining {
		t.remaining -= int64(frames)
		return
	}

	// The budget ends inside this block: keep what fits, silence the rest.
	if frames > 0 {
		channels := len(output) / frames
		clear(output[int(t.remaining)*channels:])
	}
	t.remaining = 0
	t.done.Store(true)
}
