package cmd

import (
	"github.com/spf13/cobra"

	"go-practice/debug"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "go-practice",
	Short: "Instrument practice from a score",
	Long: `Steps through a score one moment at a time and listens on the
microphone. Play the note or chord shown to move on.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag {
			return debug.Enable()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log to ~/.config/go-practice/debug.log")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
