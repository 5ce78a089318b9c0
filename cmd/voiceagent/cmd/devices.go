package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naeemakhtar23/voiceagent/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the audio input devices available for local capture.

The default device is marked with *. Select a device by name in the
config file under [audio] input_device.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		return fmt.Errorf("could not enumerate audio devices: %v", err)
	}

	fmt.Println("Audio Input Devices")
	fmt.Println("===================")
	fmt.Println()

	if len(devices) == 0 {
		fmt.Println("No input devices found.")
		fmt.Println()
		fmt.Println("Check that a microphone is connected and that the")
		fmt.Println("process has permission to use it.")
		return nil
	}

	fmt.Printf("%-40s %-10s %-12s\n", "NAME", "CHANNELS", "SAMPLE RATE")
	fmt.Println(strings.Repeat("-", 66))

	for _, d := range devices {
		name := d.Name
		if d.IsDefault {
			name = name + " *"
		}
		fmt.Printf("%-40s %-10d %.0f Hz\n", name, d.MaxInputChannels, d.DefaultSampleRate)
	}

	fmt.Println()
	fmt.Printf("Total: %d device(s)\n", len(devices))
	return nil
}
