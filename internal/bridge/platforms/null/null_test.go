package null_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/bridge/platforms/null"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingProcessor struct {
	value  float32
	blocks atomic.Int64
}

func (p *countingProcessor) ProcessBlock(input, output []float32, frames int) {
	p.blocks.Add(1)
	for i := range output {
		output[i] = p.value
	}
}

func waitReady(t *testing.T, b *bridge.Backend) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.WaitReady(ctx))
}

func TestSelfClockedRendersBlocks(t *testing.T) {
	b, info, err := bridge.StartStream(bridge.Config{}, null.New())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, null.DefaultSampleRate, info.SampleRate)
	waitReady(t, b)

	proc := &countingProcessor{value: 0.5}
	b.InstallProcessor(proc)

	require.Eventually(t, func() bool {
		return b.Stats().BlocksRendered >= 3
	}, 2*time.Second, 5*time.Millisecond, "clock never drove the processor")

	assert.GreaterOrEqual(t, proc.blocks.Load(), int64(3))
	assert.NoError(t, b.PollStatus())
}

func TestSelfClockedSilentBeforeInstall(t *testing.T) {
	b, _, err := bridge.StartStream(bridge.Config{}, null.New())
	require.NoError(t, err)
	defer b.Close()

	waitReady(t, b)

	require.Eventually(t, func() bool {
		return b.Stats().SilentBlocks >= 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, bridge.HostAwaitingProcessor, b.Stats().State)
}

func TestRequestedSampleRateHonored(t *testing.T) {
	b, info, err := bridge.StartStream(bridge.Config{SampleRate: 22050}, null.New())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 22050, info.SampleRate)
}

func TestManualPumpRendersProcessorOutput(t *testing.T) {
	p := null.NewManual()
	b, _, err := bridge.StartStream(bridge.Config{}, p)
	require.NoError(t, err)
	defer b.Close()

	waitReady(t, b)

	nctx := p.Context()
	require.NotNil(t, nctx)

	dst := make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels)

	// No processor yet: the pump delivers silence.
	require.True(t, nctx.Pump(dst, bridge.BlockFrames))
	for _, s := range dst {
		require.Zero(t, s)
	}

	b.InstallProcessor(&countingProcessor{value: 0.25})

	require.True(t, nctx.Pump(dst, bridge.BlockFrames))
	for _, s := range dst {
		require.Equal(t, float32(0.25), s)
	}

	assert.Equal(t, int64(2), nctx.Blocks())
}

func TestKillSurfacesThroughPoll(t *testing.T) {
	p := null.New()
	b, _, err := bridge.StartStream(bridge.Config{}, p)
	require.NoError(t, err)
	defer b.Close()

	waitReady(t, b)
	require.NoError(t, b.PollStatus())

	p.Context().Kill()

	b.InstallProcessor(&countingProcessor{value: 1})
	err = b.PollStatus()
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrUnexpectedDrop)
}

func TestCloseStopsClock(t *testing.T) {
	p := null.New()
	b, _, err := bridge.StartStream(bridge.Config{}, p)
	require.NoError(t, err)

	waitReady(t, b)
	b.InstallProcessor(&countingProcessor{value: 1})

	require.Eventually(t, func() bool {
		return p.Context().Blocks() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	b.Close()

	rendered := p.Context().Blocks()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, rendered, p.Context().Blocks(), "clock kept running after close")
}

func TestActivateAfterCloseFails(t *testing.T) {
	p := null.New()
	pctx, err := p.NewContext(0)
	require.NoError(t, err)
	require.NoError(t, pctx.Close())

	_, err = pctx.ActivateRenderNode(context.Background(), nil)
	require.Error(t, err)
}
