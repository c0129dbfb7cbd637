package bridge

import "sync/atomic"

// Handoff state machine values. The only legal transitions are
// empty -> full (Send) and full -> consumed (TryReceive).
const (
	handoffEmpty int32 = iota
	handoffFull
	handoffConsumed
)

// Handoff is a single-producer single-consumer one-shot channel that moves
// a Processor from the control side to the render side. Neither side ever
// blocks: Send fails immediately when the receiver is gone or a value was
// already sent, and TryReceive returns false on every call except the one
// that consumes the value.
//
// The zero-value restriction is single-use per stream. Restarting a graph
// is modeled as a brand new stream with a fresh Handoff.
type Handoff struct {
	state        atomic.Int32
	receiverGone atomic.Bool

	// value is written by the producer before the empty -> full transition
	// and read by the consumer after the full -> consumed transition. The
	// atomic state operations order these accesses.
	value Processor
}

// NewHandoff creates an empty handoff channel.
func NewHandoff() *Handoff {
	return &Handoff{}
}

// Send transfers p to the receiving side. It never blocks. It returns
// ErrReceiverGone when the render side has been torn down, which the caller
// must treat as the stream no longer being usable, and ErrAlreadySent when
// a processor has already been pushed through this channel.
//
// Send must only be called from the single producing goroutine.
func (h *Handoff) Send(p Processor) error {
	if h.receiverGone.Load() {
		return ErrReceiverGone
	}
	if h.state.Load() != handoffEmpty {
		return ErrAlreadySent
	}
	h.value = p
	if !h.state.CompareAndSwap(handoffEmpty, handoffFull) {
		h.value = nil
		return ErrAlreadySent
	}
	return nil
}

// TryReceive returns the sent Processor at most once across the lifetime of
// the channel. Every call before the send, and every call after the single
// successful receive, returns (nil, false). It never blocks and performs no
// allocation, making it safe inside the real-time callback.
func (h *Handoff) TryReceive() (Processor, bool) {
	if h.state.Load() != handoffFull {
		return nil, false
	}
	if !h.state.CompareAndSwap(handoffFull, handoffConsumed) {
		return nil, false
	}
	p := h.value
	h.value = nil
	return p, true
}

// CloseReceiver marks the receiving side as gone. Subsequent Send calls
// fail with ErrReceiverGone. It is idempotent and safe to call from any
// goroutine; the render side calls it when the platform stops invoking the
// callback, and the bootstrap path calls it when activation fails outright.
func (h *Handoff) CloseReceiver() {
	h.receiverGone.Store(true)
}

// ReceiverGone reports whether the receiving side has been marked gone.
func (h *Handoff) ReceiverGone() bool {
	return h.receiverGone.Load()
}
