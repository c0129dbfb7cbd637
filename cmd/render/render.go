package render

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiograph/streambridge/internal/conf"
	"github.com/audiograph/streambridge/internal/playback"
)

// Command creates a new command for offline rendering to a WAV file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the generated signal to a WAV file",
		Long:  "Render the configured waveform offline, faster than real time, and write it to a WAV file without opening an audio device.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return playback.Render(settings)
		},
	}

	// Set up flags specific to the 'render' command
	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the render command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Synth.Wave, "wave", "w", viper.GetString("synth.wave"), "Waveform to generate (\"sine\" or \"sweep\")")
	cmd.Flags().Float64VarP(&settings.Synth.Frequency, "frequency", "f", viper.GetFloat64("synth.frequency"), "Sine frequency in Hz")
	cmd.Flags().Float64Var(&settings.Synth.SweepFrom, "sweepfrom", viper.GetFloat64("synth.sweepfrom"), "Sweep start frequency in Hz")
	cmd.Flags().Float64Var(&settings.Synth.SweepTo, "sweepto", viper.GetFloat64("synth.sweepto"), "Sweep end frequency in Hz")
	cmd.Flags().Float64VarP(&settings.Synth.Gain, "gain", "g", viper.GetFloat64("synth.gain"), "Linear output gain between 0.0 and 1.0")
	cmd.Flags().Float64VarP(&settings.Synth.Duration, "duration", "t", viper.GetFloat64("synth.duration"), "Length of the rendered signal in seconds")
	cmd.Flags().StringVarP(&settings.Export.Path, "output", "o", viper.GetString("export.path"), "Directory for the rendered WAV file")
	cmd.Flags().IntVarP(&settings.Export.BitDepth, "bitdepth", "b", viper.GetInt("export.bitdepth"), "WAV bit depth: 16, 24 or 32")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
