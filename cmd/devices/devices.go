package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audiograph/streambridge/internal/bridge"
	"github.com/audiograph/streambridge/internal/bridge/platforms/malgo"
)

// Command creates a new command that lists audio devices: the fixed set a
// stream exposes to the engine, and the playback hardware miniaudio can see.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices()
		},
	}
}

func listDevices() error {
	fmt.Println("Stream input devices:")
	inputs := bridge.AvailableInputDevices()
	if len(inputs) == 0 {
		fmt.Println("  none")
	}
	for _, device := range inputs {
		fmt.Printf("  %s: %d channels\n", device.Name, device.Channels)
	}

	fmt.Println("Stream output devices:")
	for _, device := range bridge.AvailableOutputDevices() {
		suffix := ""
		if device.IsDefault {
			suffix = " (default)"
		}
		fmt.Printf("  %s: %d channels%s\n", device.Name, device.Channels, suffix)
	}

	devices, err := malgo.EnumerateDevices()
	if err != nil {
		return fmt.Errorf("failed to enumerate playback hardware: %w", err)
	}

	fmt.Println("\nPlayback hardware:")
	if len(devices) == 0 {
		fmt.Println("  no playback devices found")
		return nil
	}
	for i := range devices {
		suffix := ""
		if devices[i].IsDefault {
			suffix = " (default)"
		}
		fmt.Printf("  %d: %s (ID: %s)%s\n", devices[i].Index, devices[i].Name, devices[i].ID, suffix)
	}

	return nil
}
