package export

import (
	"encoding/binary"
	"math"

	"github.com/audiograph/streambridge/internal/bridge"
)

// Tee wraps inner so every rendered block is also queued for the WAV writer.
// The returned processor adds no allocation to the render path; when the
// ring buffer has no room for a block the block is counted as dropped and
// playback continues untouched.
func (e *Exporter) Tee(inner bridge.Processor) bridge.Processor {
	return &tee{inner: inner, exporter: e}
}

type tee struct {
	inner    bridge.Processor
	exporter *Exporter
}

func (t *tee) ProcessBlock(input, output []float32, frames int) {
	t.inner.ProcessBlock(input, output, frames)
	t.exporter.capture(output)
}

// capture queues one rendered block for the writer goroutine. Called from
// the render callback only.
func (e *Exporter) capture(samples []float32) {
	if e.failed.Load() {
		return
	}
	n := len(samples) * bytesPerSample
	if n > len(e.scratch) || e.rb.Free() < n {
		e.drops.Add(1)
		return
	}
	for i, s := range samples {
		binary.LittleEndian.PutUint32(e.scratch[i*bytesPerSample:], math.Float32bits(s))
	}
	if _, err := e.rb.Write(e.scratch[:n]); err != nil {
		e.drops.Add(1)
	}
}
