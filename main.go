package main

import (
	"fmt"
	"os"
	"time"

	"github.com/audiograph/streambridge/cmd"
	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/logging"
	"github.com/audiograph/streambridge/internal/telemetry"
)

// version and buildDate are overridden at build time through ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := logging.InitFromConfig(&settings.Main.Log)
	if err != nil {
		logging.Warn("file logging unavailable, continuing with console output only", "error", err)
	}

	if configFile, err := conf.FindConfigFile(); err == nil {
		logging.Debug("loaded configuration", "path", configFile)
	}

	build := &buildinfo.Context{
		Version:   version,
		BuildDate: buildDate,
	}

	// The anonymous system ID lives next to the config file. Telemetry works
	// without one, it just cannot group reports by installation.
	if paths, err := conf.GetDefaultConfigPaths(); err == nil && len(paths) > 0 {
		if systemID, err := telemetry.LoadOrCreateSystemID(paths[0]); err == nil {
			build.SystemID = systemID
		}
	}

	if err := telemetry.Init(settings, build); err != nil {
		logging.Warn("telemetry initialization failed, continuing without error reporting", "error", err)
	}

	rootCmd := cmd.RootCommand(settings, build)
	execErr := rootCmd.Execute()

	// Give pending telemetry events a chance to reach the backend before exit.
	telemetry.Flush(3 * time.Second)

	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
	}

	if execErr != nil {
		os.Exit(1)
	}
}
