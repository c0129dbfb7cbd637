package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/logging"
)

func TestRootCommandDebugFlag(t *testing.T) {
	settings := &conf.Settings{}
	rootCmd := RootCommand(settings, &buildinfo.Context{})

	flag := rootCmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "d", flag.Shorthand)

	require.NoError(t, rootCmd.PersistentFlags().Set("debug", "true"))
	assert.True(t, settings.Debug)
}

// The debug flag drives the logger level through the persistent pre-run.
func TestRootCommandPreRunSetsLogLevel(t *testing.T) {
	defer logging.Init()
	logging.Init()

	var structured bytes.Buffer
	logging.SetOutput(&structured, io.Discard)

	settings := &conf.Settings{}
	rootCmd := RootCommand(settings, &buildinfo.Context{})
	require.NotNil(t, rootCmd.PersistentPreRun)

	settings.Debug = false
	rootCmd.PersistentPreRun(rootCmd, nil)
	slog.Debug("suppressed at info level")

	settings.Debug = true
	rootCmd.PersistentPreRun(rootCmd, nil)
	slog.Debug("visible at debug level")

	assert.NotContains(t, structured.String(), "suppressed at info level")
	assert.Contains(t, structured.String(), "visible at debug level")
}
