package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiograph/streambridge/cmd/devices"
	"github.com/audiograph/streambridge/cmd/play"
	"github.com/audiograph/streambridge/cmd/render"
	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "streambridge",
		Short:   "StreamBridge CLI",
		Long:    "Generate test signals and bridge them to an audio output device in real time, or render them to WAV files offline.",
		Version: fmt.Sprintf("%s (built %s)", build.GetVersion(), build.GetBuildDate()),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if settings.Debug {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(slog.LevelInfo)
			}
		},
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		play.Command(settings, build),
		render.Command(settings),
		devices.Command(),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Audio.Platform, "platform", "p", viper.GetString("audio.platform"), "Audio platform to use: malgo, portaudio or null")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Device, "device", viper.GetString("audio.device"), "Output device name, empty for the system default")
	rootCmd.PersistentFlags().IntVar(&settings.Audio.SampleRate, "samplerate", viper.GetInt("audio.samplerate"), "Requested sample rate in Hz, 0 lets the device decide")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
