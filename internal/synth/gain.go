package synth

import (
	"sync/atomic"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/errors"
)

// Gain scales the output of an inner processor and clamps the result to
// [-1.0, 1.0]. The gain can be changed from the control side while the
// render side keeps processing.
type Gain struct {
	inner bridge.Processor
	gain  atomic.Value // stores float64
}

// NewGain wraps inner with a gain stage. Gain must be between 0.0 and 1.0.
func NewGain(inner bridge.Processor, gain float64) (*Gain, error) {
	if gain < 0.0 || gain > 1.0 {
		return nil, errors.Newf("gain must be between 0.0 and 1.0, got %g", gain).
			Component(component).
			Category(errors.CategoryValidation).
			Context("gain", gain).
			Build()
	}

	g := &Gain{inner: inner}
	g.gain.Store(gain)
	return g, nil
}

// SetGain updates the gain value.
func (g *Gain) SetGain(gain float64) error {
	if gain < 0.0 || gain > 1.0 {
		return errors.Newf("gain must be between 0.0 and 1.0, got %g", gain).
			Component(component).
			Category(errors.CategoryValidation).
			Context("gain", gain).
			Build()
	}
	g.gain.Store(gain)
	return nil
}

// GetGain returns the current gain value.
func (g *Gain) GetGain() float64 {
	return g.gain.Load().(float64)
}

// ProcessBlock renders the inner processor and applies the gain.
func (g *Gain) ProcessBlock(input, output []float32, frames int) {
	g.inner.ProcessBlock(input, output, frames)

	gain := g.gain.Load().(float64)
	if gain == 1.0 {
		return
	}

	for i, s := range output {
		v := float32(float64(s) * gain)
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		output[i] = v
	}
}
