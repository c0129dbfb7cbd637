// Package synth provides the built-in signal processors: oscillators that
// generate test tones and decorators that shape their output. Everything
// here implements bridge.Processor and follows its rules, no blocking,
// locking or allocation inside ProcessBlock.
package synth

import (
	"math"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
)

const component = "synth"

// DefaultSweepCycle is the length of one sweep pass in seconds.
const DefaultSweepCycle = 5.0

// Sine generates a sine wave at a fixed frequency, written identically to
// every output channel.
type Sine struct {
	sampleRate float64
	frequency  float64
	phase      float64
}

// NewSine returns a sine oscillator for the given sample rate.
func NewSine(sampleRate int, frequency float64) *Sine {
	return &Sine{
		sampleRate: float64(sampleRate),
		frequency:  frequency,
	}
}

// ProcessBlock renders frames samples of the wave.
func (s *Sine) ProcessBlock(input, output []float32, frames int) {
	if frames <= 0 {
		return
	}
	channels := len(output) / frames
	step := 2 * math.Pi * s.frequency / s.sampleRate

	for f := 0; f < frames; f++ {
		sample := float32(math.Sin(s.phase))
		s.phase += step
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			output[base+ch] = sample
		}
	}

	// Keep the accumulated phase small so precision holds over long runs.
	if s.phase > 2*math.Pi {
		s.phase = math.Mod(s.phase, 2*math.Pi)
	}
}

// Sweep generates a sine wave whose frequency sweeps exponentially from one
// frequency to another over a fixed cycle, then restarts. The phase
// accumulates across the frequency change so the wave stays continuous, and
// a short envelope at the cycle edges avoids clicks at the restart.
type Sweep struct {
	sampleRate float64
	from       float64
	to         float64
	cycle      float64
	time       float64
	phase      float64
}

// NewSweep returns a sweep oscillator. cycle is the length of one pass in
// seconds; DefaultSweepCycle when 0. Both frequencies must be positive, the
// exponential sweep is undefined otherwise.
func NewSweep(sampleRate int, from, to, cycle float64) (*Sweep, error) {
	if from <= 0 || to <= 0 {
		return nil, errors.Newf("sweep frequencies must be positive, got %g to %g", from, to).
			Component(component).
			Category(errors.CategoryValidation).
			Context("from", from).
			Context("to", to).
			Build()
	}
	if cycle <= 0 {
		cycle = DefaultSweepCycle
	}
	return &Sweep{
		sampleRate: float64(sampleRate),
		from:       from,
		to:         to,
		cycle:      cycle,
	}, nil
}

// ProcessBlock renders frames samples of the sweep.
func (s *Sweep) ProcessBlock(input, output []float32, frames int) {
	if frames <= 0 {
		return
	}
	channels := len(output) / frames
	sampleTime := 1.0 / s.sampleRate
	ratio := s.to / s.from

	for f := 0; f < frames; f++ {
		progress := s.time / s.cycle
		if progress >= 1.0 {
			s.time = 0
			progress = 0
			s.phase = math.Mod(s.phase, 2*math.Pi)
		}

		currentFreq := s.from * math.Pow(ratio, progress)
		s.phase += 2 * math.Pi * currentFreq * sampleTime
		sample := math.Sin(s.phase)

		// Fade the first and last 5% of the cycle.
		envelope := 1.0
		const fade = 0.05
		if progress < fade {
			envelope = progress / fade
		} else if progress > 1.0-fade {
			envelope = (1.0 - progress) / fade
		}

		v := float32(sample * envelope)
		base := f * channels
		for ch := 0; ch < channels; ch++ {
			output[base+ch] = v
		}

		s.time += sampleTime
	}
}

// FromSettings builds the processor chain described by the synth settings:
// an oscillator, a gain stage, and, when a duration is set, a Timed wrapper
// that silences the chain once the duration has played out. The returned
// *Timed is nil when playback is unlimited.
func FromSettings(settings *conf.SynthSettings, sampleRate int) (bridge.Processor, *Timed, error) {
	var osc bridge.Processor
	switch settings.Wave {
	case conf.WaveSine, "":
		osc = NewSine(sampleRate, settings.Frequency)
	case conf.WaveSweep:
		sweep, err := NewSweep(sampleRate, settings.SweepFrom, settings.SweepTo, DefaultSweepCycle)
		if err != nil {
			return nil, nil, err
		}
		osc = sweep
	default:
		return nil, nil, errors.Newf("unknown synth wave %q", settings.Wave).
			Component(component).
			Category(errors.CategoryValidation).
			Context("wave", settings.Wave).
			Build()
	}

	gained, err := NewGain(osc, settings.Gain)
	if err != nil {
		return nil, nil, err
	}

	if settings.Duration > 0 {
		timed := NewTimed(gained, int64(settings.Duration*float64(sampleRate)))
		return timed, timed, nil
	}
	return gained, nil, nil
}
