package export

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/conf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestExporter(t *testing.T, bitDepth, sampleRate int) *Exporter {
	t.Helper()
	settings := &conf.ExportSettings{
		Enabled:  true,
		Path:     t.TempDir(),
		BitDepth: bitDepth,
	}
	e, err := New(settings, sampleRate, bridge.StreamOutputChannels, nil)
	require.NoError(t, err)
	return e
}

func decodeFile(t *testing.T, path string) (*wav.Decoder, []int, func()) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	require.True(t, decoder.IsValidFile(), "exported file is not a valid WAV")
	buf, err := decoder.FullPCMBuffer()
	require.NoError(t, err)
	return decoder, buf.Data, func() { _ = f.Close() }
}

func TestTeeRoundTrip(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, 16, 48000)

	// One exactly representable value per block so decoded integers can be
	// compared without tolerance.
	values := []float32{0.25, 0.5, -0.5}
	current := float32(0)
	proc := e.Tee(bridge.ProcessorFunc(func(_, output []float32, _ int) {
		for i := range output {
			output[i] = current
		}
	}))

	output := make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels)
	for _, v := range values {
		current = v
		proc.ProcessBlock(nil, output, bridge.BlockFrames)
	}

	require.NoError(t, e.Drain())
	require.NoError(t, e.Close())

	decoder, data, cleanup := decodeFile(t, e.Path())
	defer cleanup()

	assert.Equal(t, uint32(48000), decoder.SampleRate)
	assert.Equal(t, uint16(16), decoder.BitDepth)
	assert.Equal(t, uint16(bridge.StreamOutputChannels), decoder.NumChans)

	blockSamples := bridge.BlockFrames * bridge.StreamOutputChannels
	require.Len(t, data, len(values)*blockSamples)

	expected := []int{8192, 16384, -16384}
	for b, want := range expected {
		assert.Equal(t, want, data[b*blockSamples], "first sample of block %d", b)
		assert.Equal(t, want, data[(b+1)*blockSamples-1], "last sample of block %d", b)
	}

	stats := e.Stats()
	assert.Equal(t, int64(len(values)*bridge.BlockFrames), stats.FramesWritten)
	assert.Equal(t, int64(0), stats.DroppedBlocks)
}

func TestFullScaleClampPerBitDepth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		bitDepth int
		max      int
		min      int
	}{
		{bitDepth: 16, max: 32767, min: -32768},
		{bitDepth: 24, max: 8388607, min: -8388608},
		{bitDepth: 32, max: 2147483647, min: -2147483648},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(map[int]string{16: "16bit", 24: "24bit", 32: "32bit"}[tc.bitDepth], func(t *testing.T) {
			t.Parallel()

			e := newTestExporter(t, tc.bitDepth, 44100)

			// +1.0 exceeds the positive integer range by one and must clamp,
			// -1.0 maps exactly onto the minimum.
			assert.Equal(t, tc.max, e.sampleToInt(1.0))
			assert.Equal(t, tc.min, e.sampleToInt(-1.0))
			assert.Equal(t, tc.max, e.sampleToInt(1.5))
			assert.Equal(t, tc.min, e.sampleToInt(-1.5))
			assert.Equal(t, 0, e.sampleToInt(0))

			require.NoError(t, e.Close())
		})
	}
}

func TestCaptureDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	// A 100 Hz stream gives the ring buffer room for one block but not two.
	e := newTestExporter(t, 16, 100)

	proc := e.Tee(bridge.ProcessorFunc(func(_, output []float32, _ int) {
		for i := range output {
			output[i] = 0.5
		}
	}))

	output := make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels)
	proc.ProcessBlock(nil, output, bridge.BlockFrames)
	proc.ProcessBlock(nil, output, bridge.BlockFrames)

	assert.Equal(t, int64(1), e.Stats().DroppedBlocks)

	require.NoError(t, e.Drain())
	require.NoError(t, e.Close())

	// Only the first block made it to disk.
	assert.Equal(t, int64(bridge.BlockFrames), e.Stats().FramesWritten)
}

func TestWriterGoroutineDrainsOnShutdown(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, 16, 48000)

	var wg sync.WaitGroup
	quit := make(chan struct{})
	e.Start(&wg, quit)

	proc := e.Tee(bridge.ProcessorFunc(func(_, output []float32, _ int) {
		for i := range output {
			output[i] = 0.25
		}
	}))

	output := make([]float32, bridge.BlockFrames*bridge.StreamOutputChannels)
	for n := 0; n < 5; n++ {
		proc.ProcessBlock(nil, output, bridge.BlockFrames)
	}

	close(quit)
	wg.Wait()

	_, data, cleanup := decodeFile(t, e.Path())
	defer cleanup()

	assert.Len(t, data, 5*bridge.BlockFrames*bridge.StreamOutputChannels)
	assert.Equal(t, 8192, data[0])
}

func TestNewRejectsBadSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := New(&conf.ExportSettings{Path: dir, BitDepth: 12}, 48000, 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bit depth")

	_, err = New(&conf.ExportSettings{Path: dir, BitDepth: 16}, 0, 2, nil)
	require.Error(t, err)
}

func TestNewCreatesExportDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "clips")
	e, err := New(&conf.ExportSettings{Path: dir, BitDepth: 16}, 48000, 2, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, e.Close()) }()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, 16, 48000)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}
