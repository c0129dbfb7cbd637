package play

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiograph/streambridge/internal/buildinfo"
	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/playback"
)

// Command creates a new command for live playback of the generated signal.
func Command(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the generated signal on an output device",
		Long:  "Open an output stream and render the configured waveform in real time until interrupted or until the configured duration has elapsed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return playback.Play(settings, build)
		},
	}

	// Set up flags specific to the 'play' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the play command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Synth.Wave, "wave", "w", viper.GetString("synth.wave"), "Waveform to generate (\"sine\" or \"sweep\")")
	cmd.Flags().Float64VarP(&settings.Synth.Frequency, "frequency", "f", viper.GetFloat64("synth.frequency"), "Sine frequency in Hz")
	cmd.Flags().Float64Var(&settings.Synth.SweepFrom, "sweepfrom", viper.GetFloat64("synth.sweepfrom"), "Sweep start frequency in Hz")
	cmd.Flags().Float64Var(&settings.Synth.SweepTo, "sweepto", viper.GetFloat64("synth.sweepto"), "Sweep end frequency in Hz")
	cmd.Flags().Float64VarP(&settings.Synth.Gain, "gain", "g", viper.GetFloat64("synth.gain"), "Linear output gain between 0.0 and 1.0")
	cmd.Flags().Float64Var(&settings.Synth.Duration, "duration", viper.GetFloat64("synth.duration"), "Playback duration in seconds, 0 plays until interrupted")
	cmd.Flags().BoolVar(&settings.Export.Enabled, "export", viper.GetBool("export.enabled"), "Capture the rendered audio to a WAV file")
	cmd.Flags().StringVar(&settings.Export.Path, "exportpath", viper.GetString("export.path"), "Path to save exported WAV files")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "listen", viper.GetString("metrics.listen"), "Listen address and port of metrics endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
