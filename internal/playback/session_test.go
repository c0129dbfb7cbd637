package playback

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/buildinfo"
)

func TestPlayStopsAfterConfiguredDuration(t *testing.T) {
	settings := testSettings(t.TempDir())
	settings.Synth.Duration = 0.05

	require.NoError(t, Play(settings, &buildinfo.Context{}))
}

func TestPlayCapturesExportWhileLive(t *testing.T) {
	dir := t.TempDir()
	settings := testSettings(dir)
	settings.Synth.Duration = 0.05
	settings.Export.Enabled = true

	require.NoError(t, Play(settings, &buildinfo.Context{}))

	files, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	samples, format := decodePCM(t, files[0])
	assert.Equal(t, 8000, format.SampleRate)
	assert.Equal(t, bridge.StreamOutputChannels, format.NumChannels)

	// The capture keeps running between the duration playing out and the
	// session noticing, so only a lower bound on length holds.
	assert.GreaterOrEqual(t, len(samples), 400*bridge.StreamOutputChannels)
	assert.True(t, hasSignal(samples), "captured audio should not be all silence")
}

func TestPlayRejectsUnknownPlatform(t *testing.T) {
	settings := testSettings(t.TempDir())
	settings.Audio.Platform = "asio"

	err := Play(settings, &buildinfo.Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown audio platform")
}
