package bridge

import "sync/atomic"

// Liveness is the shared flag recording whether a stream is still usable.
// It starts alive, transitions to dead exactly once and never back. Only
// the control side writes it; both sides may read it. Reads carry no
// ordering guarantee beyond eventual visibility, which is sufficient
// because the flag only gates best-effort early exit on the render side.
type Liveness struct {
	alive atomic.Bool
}

// NewLiveness returns a flag in the alive state.
func NewLiveness() *Liveness {
	l := &Liveness{}
	l.alive.Store(true)
	return l
}

// MarkDead lowers the flag. It is idempotent, never blocks and is called
// from the control side's teardown path.
func (l *Liveness) MarkDead() {
	l.alive.Store(false)
}

// IsAlive reports the last written state. Callable from any goroutine,
// including the real-time callback.
func (l *Liveness) IsAlive() bool {
	return l.alive.Load()
}
