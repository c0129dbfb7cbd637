package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiograph/streambridge/internal/bridge/platforms/malgo"
	"github.com/audiograph/streambridge/internal/bridge/platforms/null"
	"github.com/audiograph/streambridge/internal/bridge/platforms/portaudio"
	"github.com/audiograph/streambridge/internal/conf"
)

func TestNewSelectsConfiguredPlatform(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		want     any
	}{
		{"malgo", conf.PlatformMalgo, &malgo.Platform{}},
		{"portaudio", conf.PlatformPortAudio, &portaudio.Platform{}},
		{"null", conf.PlatformNull, &null.Platform{}},
		{"empty defaults to malgo", "", &malgo.Platform{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(&conf.AudioSettings{Platform: tt.platform})
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestNewRejectsUnknownPlatform(t *testing.T) {
	_, err := New(&conf.AudioSettings{Platform: "oss"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown audio platform")
}
