// Package export captures the rendered output signal to a WAV file on disk.
// A Tee processor copies each rendered block into a ring buffer from the
// render callback; a writer goroutine drains the buffer and encodes it in
// the background. When the buffer is full the render side drops blocks
// rather than wait on the disk.
package export

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smallnest/ringbuffer"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
	"github.com/audiograph/streambridge/internal/logging"
	"github.com/audiograph/streambridge/internal/observability/metrics"
)

const component = "export"

const (
	// drainInterval is how often the writer goroutine empties the ring buffer.
	drainInterval = 100 * time.Millisecond

	// bufferSeconds sizes the ring buffer between the render callback and
	// the disk writer. Two seconds of audio absorbs slow disk writes.
	bufferSeconds = 2

	// drainFrames is the number of sample frames moved from the ring buffer
	// to the encoder per read.
	drainFrames = 4096

	bytesPerSample = 4 // float32 in the ring buffer
)

func getLogger() *slog.Logger {
	if l := logging.ForService("export"); l != nil {
		return l
	}
	return slog.Default()
}

// Exporter owns the WAV file, the encoder and the ring buffer that feeds it.
// The render side only touches capture; everything else runs on the control
// side or the writer goroutine.
type Exporter struct {
	logger  *slog.Logger
	metrics *metrics.ExportMetrics

	path       string
	sampleRate int
	channels   int
	bitDepth   int
	scale      float64
	format     *audio.Format

	rb      *ringbuffer.RingBuffer
	scratch []byte // render side only, reused across blocks

	file *os.File
	enc  *wav.Encoder

	// writer goroutine state
	readBuf      []byte
	intBuf       []int
	loggedDrops  int64
	lastDropWarn time.Time

	frames atomic.Int64
	drops  atomic.Int64
	failed atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Stats is a snapshot of export activity.
type Stats struct {
	FramesWritten int64
	DroppedBlocks int64
}

// New creates the export directory and WAV file and prepares the encoder.
// The sample rate and channel count must match the stream the Tee processor
// will be installed on. em may be nil when metrics are disabled.
func New(settings *conf.ExportSettings, sampleRate, channels int, em *metrics.ExportMetrics) (*Exporter, error) {
	var scale float64
	switch settings.BitDepth {
	case 16:
		scale = 32768.0
	case 24:
		scale = 8388608.0
	case 32:
		scale = 2147483648.0
	default:
		return nil, errors.Newf("unsupported export bit depth %d", settings.BitDepth).
			Component(component).
			Category(errors.CategoryValidation).
			Context("bit_depth", settings.BitDepth).
			Build()
	}

	if sampleRate <= 0 || channels <= 0 {
		return nil, errors.Newf("invalid stream format %d Hz, %d channels", sampleRate, channels).
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}

	if err := os.MkdirAll(settings.Path, 0o755); err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryFileIO).
			Context("path", settings.Path).
			Build()
	}

	filename := fmt.Sprintf("stream_%s.wav", time.Now().Format("20060102_150405"))
	fullPath := filepath.Join(settings.Path, filename)
	outFile, err := os.Create(fullPath)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryFileIO).
			Context("path", fullPath).
			Build()
	}

	frameBytes := channels * bytesPerSample
	e := &Exporter{
		logger:     getLogger(),
		metrics:    em,
		path:       fullPath,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   settings.BitDepth,
		scale:      scale,
		format:     &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		rb:         ringbuffer.New(bufferSeconds * sampleRate * frameBytes),
		scratch:    make([]byte, bridge.BlockFrames*frameBytes),
		file:       outFile,
		enc:        wav.NewEncoder(outFile, sampleRate, settings.BitDepth, channels, 1),
		readBuf:    make([]byte, drainFrames*frameBytes),
		intBuf:     make([]int, drainFrames*channels),
	}
	return e, nil
}

// Path returns the full path of the WAV file being written.
func (e *Exporter) Path() string {
	return e.path
}

// Stats returns a snapshot of frames written to disk and blocks dropped on
// the render side.
func (e *Exporter) Stats() Stats {
	return Stats{
		FramesWritten: e.frames.Load(),
		DroppedBlocks: e.drops.Load(),
	}
}

// Start launches the writer goroutine. It drains the ring buffer on an
// interval and finalizes the WAV file when quitChan closes.
func (e *Exporter) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	e.logger.Info("export started",
		"path", e.path,
		"sample_rate", e.sampleRate,
		"channels", e.channels,
		"bit_depth", e.bitDepth)

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.run(quitChan)
	}()
}

func (e *Exporter) run(quitChan <-chan struct{}) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quitChan:
			_ = e.Drain()
			if err := e.Close(); err != nil {
				e.logger.Error("closing export file failed", "error", err)
			}
			return
		case <-ticker.C:
			_ = e.Drain()
			e.report()
		}
	}
}

// Drain synchronously moves everything queued in the ring buffer into the
// WAV encoder. The writer goroutine calls it on an interval; offline
// rendering calls it directly between blocks instead of running the
// goroutine. A write failure stops the export permanently and is returned.
func (e *Exporter) Drain() error {
	if e.failed.Load() {
		return errors.Newf("export stopped after earlier write failure").
			Component(component).
			Category(errors.CategoryFileIO).
			Context("path", e.path).
			Build()
	}
	for {
		n, err := e.rb.Read(e.readBuf)
		if n > 0 {
			if werr := e.flush(e.readBuf[:n]); werr != nil {
				e.logger.Error("WAV write failed, stopping export", "error", werr, "path", e.path)
				if e.metrics != nil {
					e.metrics.RecordWriteError()
				}
				e.failed.Store(true)
				return errors.New(werr).
					Component(component).
					Category(errors.CategoryFileIO).
					Context("path", e.path).
					Build()
			}
		}
		if err != nil || n < len(e.readBuf) {
			return nil
		}
	}
}

// flush converts one batch of float32 sample bytes and hands it to the
// encoder. data is always whole interleaved frames.
func (e *Exporter) flush(data []byte) error {
	samples := len(data) / bytesPerSample
	for i := 0; i < samples; i++ {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[i*bytesPerSample:]))
		e.intBuf[i] = e.sampleToInt(f)
	}

	buf := &audio.IntBuffer{
		Data:           e.intBuf[:samples],
		Format:         e.format,
		SourceBitDepth: e.bitDepth,
	}
	if err := e.enc.Write(buf); err != nil {
		return err
	}

	frames := samples / e.channels
	e.frames.Add(int64(frames))
	if e.metrics != nil {
		e.metrics.RecordWrite(frames, samples*e.bitDepth/8)
	}
	return nil
}

// sampleToInt scales a float32 sample to the integer range of the configured
// bit depth, clamping out-of-range input.
func (e *Exporter) sampleToInt(s float32) int {
	v := float64(s) * e.scale
	if v > e.scale-1 {
		v = e.scale - 1
	} else if v < -e.scale {
		v = -e.scale
	}
	return int(v)
}

// report publishes buffer fill level and warns when the render side had to
// drop blocks since the last report.
func (e *Exporter) report() {
	if e.metrics != nil {
		e.metrics.UpdateBufferUsage(e.rb.Length())
	}

	d := e.drops.Load()
	if d > e.loggedDrops {
		if time.Since(e.lastDropWarn) >= time.Second {
			e.logger.Warn("export buffer full, dropping rendered blocks",
				"dropped_total", d,
				"buffer_capacity", e.rb.Capacity())
			e.lastDropWarn = time.Now()
		}
		if e.metrics != nil {
			e.metrics.RecordDroppedBlocks(d - e.loggedDrops)
		}
		e.loggedDrops = d
	}
}

// Close finalizes the WAV header and closes the file. The writer goroutine
// calls it on shutdown; calling it again is a no-op.
func (e *Exporter) Close() error {
	e.closeOnce.Do(func() {
		if err := e.enc.Close(); err != nil {
			e.closeErr = errors.New(err).
				Component(component).
				Category(errors.CategoryFileIO).
				Context("path", e.path).
				Build()
		}
		if err := e.file.Close(); err != nil && e.closeErr == nil {
			e.closeErr = errors.New(err).
				Component(component).
				Category(errors.CategoryFileIO).
				Context("path", e.path).
				Build()
		}
		e.logger.Info("export finished",
			"path", e.path,
			"frames_written", e.frames.Load(),
			"dropped_blocks", e.drops.Load())
	})
	return e.closeErr
}
