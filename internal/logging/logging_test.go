package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiograph/streambridge/internal/conf"
)

// The tests in this file mutate the package level loggers, so none of them
// run in parallel. Each one starts from a fresh Init.

func TestInitFromConfigWritesToFile(t *testing.T) {
	defer Init()

	logPath := filepath.Join(t.TempDir(), "app.log")
	closeLog, err := InitFromConfig(&conf.LogConfig{
		Enabled:  true,
		Path:     logPath,
		Rotation: conf.RotationDaily,
	})
	require.NoError(t, err)

	Info("stream opened", "device", "default")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"stream opened"`)
	assert.Contains(t, string(data), `"device":"default"`)
}

func TestInitFromConfigDisabled(t *testing.T) {
	defer Init()

	logPath := filepath.Join(t.TempDir(), "app.log")
	closeLog, err := InitFromConfig(&conf.LogConfig{
		Enabled: false,
		Path:    logPath,
	})
	require.NoError(t, err)
	require.NoError(t, closeLog())

	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr), "no log file should be created when file logging is off")
	assert.NotNil(t, Structured())
}

func TestInitFromConfigBadDirectoryKeepsConsoleLoggers(t *testing.T) {
	defer Init()

	// A path whose parent is a regular file cannot be created.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	closeLog, err := InitFromConfig(&conf.LogConfig{
		Enabled:  true,
		Path:     filepath.Join(blocker, "app.log"),
		Rotation: conf.RotationSize,
	})
	require.Error(t, err)
	require.NoError(t, closeLog())

	assert.NotNil(t, Structured())
	assert.NotNil(t, HumanReadable())
}

// A level change after startup must not detach the rotating file output.
func TestSetLevelKeepsFileOutput(t *testing.T) {
	defer Init()

	logPath := filepath.Join(t.TempDir(), "app.log")
	closeLog, err := InitFromConfig(&conf.LogConfig{
		Enabled:  true,
		Path:     logPath,
		Rotation: conf.RotationDaily,
	})
	require.NoError(t, err)

	SetLevel(slog.LevelWarn)
	Info("below the level")
	Warn("device lost")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"device lost"`)
	assert.NotContains(t, string(data), "below the level")
}

func TestSetOutputAndLevelNames(t *testing.T) {
	defer Init()
	Init()

	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	slog.Log(context.Background(), LevelFatal, "render callback gone")
	slog.Log(context.Background(), LevelTrace, "ignored below handler level")
	HumanReadable().Info("ready")

	assert.Contains(t, structured.String(), `"level":"FATAL"`)
	assert.NotContains(t, structured.String(), "ignored below handler level")
	assert.Contains(t, human.String(), "msg=ready")
}

func TestForServiceAddsAttribute(t *testing.T) {
	defer Init()
	Init()

	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	ForService("bridge").Info("processor installed")
	assert.Contains(t, structured.String(), `"service":"bridge"`)
}

func TestRotationWriterMapping(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		conf       conf.LogConfig
		maxSizeMB  int
		maxBackups int
		maxAge     int
	}{
		{
			name:       "daily",
			conf:       conf.LogConfig{Path: filepath.Join(dir, "d.log"), Rotation: conf.RotationDaily},
			maxSizeMB:  100,
			maxBackups: 30,
			maxAge:     1,
		},
		{
			name:       "weekly",
			conf:       conf.LogConfig{Path: filepath.Join(dir, "w.log"), Rotation: conf.RotationWeekly},
			maxSizeMB:  100,
			maxBackups: 4,
			maxAge:     7,
		},
		{
			name:       "size",
			conf:       conf.LogConfig{Path: filepath.Join(dir, "s.log"), Rotation: conf.RotationSize, MaxSize: 5 * 1024 * 1024},
			maxSizeMB:  5,
			maxBackups: 3,
			maxAge:     28,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newRotationWriter(&tt.conf)
			require.NoError(t, err)
			defer w.Close()

			assert.Equal(t, tt.conf.Path, w.Filename)
			assert.Equal(t, tt.maxSizeMB, w.MaxSize)
			assert.Equal(t, tt.maxBackups, w.MaxBackups)
			assert.Equal(t, tt.maxAge, w.MaxAge)
		})
	}
}
