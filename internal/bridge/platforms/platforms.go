// Package platforms selects the audio platform implementation named in the
// configuration.
package platforms

import (
	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/bridge/platforms/malgo"
	"github.com/audiograph/streambridge/internal/bridge/platforms/null"
	"github.com/audiograph/streambridge/internal/bridge/platforms/portaudio"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/errors"
)

// New returns the audio platform named in settings.Platform. An empty name
// selects malgo.
func New(settings *conf.AudioSettings) (bridge.Platform, error) {
	switch settings.Platform {
	case conf.PlatformMalgo, "":
		return malgo.New(settings.Device), nil
	case conf.PlatformPortAudio:
		return portaudio.New(), nil
	case conf.PlatformNull:
		return null.New(), nil
	default:
		return nil, errors.Newf("unknown audio platform %q", settings.Platform).
			Component("bridge").
			Category(errors.CategoryValidation).
			Context("platform", settings.Platform).
			Build()
	}
}
