package bridge

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProcessor is a test double that records invocations and fills the
// output region with a fixed value.
type countingProcessor struct {
	calls      atomic.Int64
	lastFrames atomic.Int64
	fill       float32
}

func (p *countingProcessor) ProcessBlock(input, output []float32, frames int) {
	p.calls.Add(1)
	p.lastFrames.Store(int64(frames))
	for i := range output {
		output[i] = p.fill
	}
}

func TestHandoffSendThenTryReceive(t *testing.T) {
	t.Parallel()

	h := NewHandoff()
	p := &countingProcessor{}

	got, ok := h.TryReceive()
	assert.False(t, ok, "receive before send must report nothing")
	assert.Nil(t, got)

	require.NoError(t, h.Send(p))

	got, ok = h.TryReceive()
	require.True(t, ok)
	assert.Same(t, p, got, "the received processor must be the installed one")

	// The value is delivered at most once across the channel's lifetime.
	got, ok = h.TryReceive()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestHandoffSecondSendRejected(t *testing.T) {
	t.Parallel()

	h := NewHandoff()
	require.NoError(t, h.Send(&countingProcessor{}))

	err := h.Send(&countingProcessor{})
	require.ErrorIs(t, err, ErrAlreadySent)

	// Rejection applies even after the first value was consumed.
	_, ok := h.TryReceive()
	require.True(t, ok)
	assert.ErrorIs(t, h.Send(&countingProcessor{}), ErrAlreadySent)
}

func TestHandoffSendAfterReceiverGone(t *testing.T) {
	t.Parallel()

	h := NewHandoff()
	h.CloseReceiver()
	h.CloseReceiver() // idempotent

	err := h.Send(&countingProcessor{})
	require.ErrorIs(t, err, ErrReceiverGone)
	assert.True(t, h.ReceiverGone())

	_, ok := h.TryReceive()
	assert.False(t, ok, "a failed send must not leave a value behind")
}

func TestHandoffAtMostOnceUnderContention(t *testing.T) {
	t.Parallel()

	h := NewHandoff()
	want := &countingProcessor{}

	const receivers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		received  atomic.Pointer[countingProcessor]
		stop      atomic.Bool
	)

	for r := 0; r < receivers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if p, ok := h.TryReceive(); ok {
					successes.Add(1)
					received.Store(p.(*countingProcessor))
				}
			}
		}()
	}

	require.NoError(t, h.Send(want))

	require.Eventually(t, func() bool {
		return successes.Load() == 1
	}, time.Second, time.Millisecond, "the sent value must be observed within finite time")

	// Let the spinners run a little longer to catch duplicate delivery.
	time.Sleep(10 * time.Millisecond)
	stop.Store(true)
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load(), "value must be delivered to exactly one receive")
	assert.Same(t, want, received.Load())
}

func TestHandoffSendVisibleAcrossGoroutines(t *testing.T) {
	t.Parallel()

	h := NewHandoff()
	p := &countingProcessor{}

	go func() {
		_ = h.Send(p)
	}()

	require.Eventually(t, func() bool {
		got, ok := h.TryReceive()
		return ok && got == Processor(p)
	}, time.Second, 100*time.Microsecond)
}
