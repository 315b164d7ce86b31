package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-practice/audio"
	"go-practice/midi"
)

var midiDevicesFlag bool

func init() {
	devicesCmd.Flags().BoolVar(&midiDevicesFlag, "midi", false, "list MIDI input ports instead")
	rootCmd.AddCommand(devicesCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Lists audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if midiDevicesFlag {
			defer midi.Close()
			ports, err := midi.ListPorts()
			if err != nil {
				return err
			}
			for i, name := range ports {
				fmt.Fprintf(out, "  %d: %s\n", i, name)
			}
			return nil
		}

		devices, err := audio.ListDevices()
		if err != nil {
			return err
		}
		for i, d := range devices {
			mark := " "
			if d.Default {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %d: %s (%s, %d ch, %.0f Hz)\n", mark, i, d.Name, d.HostAPI, d.Channels, d.SampleRate)
		}
		return nil
	},
}
