package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"go-practice/score"
)

var jsonFlag bool

func init() {
	inspectCmd.Flags().BoolVar(&jsonFlag, "json", false, "print the score in the JSON exercise format")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <score>",
	Short: "Prints the moments of a score",
	Long:  `Prints the moments of a score, or converts it to JSON with --json.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := score.Load(args[0])
		if err != nil {
			return err
		}
		if jsonFlag {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(score.ToFile(sc))
		}
		inspect(cmd.OutOrStdout(), sc)
		return nil
	},
}

func inspect(w io.Writer, sc *score.Score) {
	fmt.Fprintf(w, "%s (%d moments)\n", sc.Title, sc.Len())
	for i := 0; i < sc.Len(); i++ {
		m, _ := sc.Moment(i)
		events := make([]string, len(m.Events))
		for j, e := range m.Events {
			events[j] = describe(e)
		}
		fmt.Fprintf(w, "%4d  %7.2f  %s\n", i, m.Offset, strings.Join(events, "  "))
	}
}

func describe(e score.Event) string {
	switch e := e.(type) {
	case score.Note:
		return fmt.Sprintf("%s %s %g", e.Staff, e.Pitch, e.Duration)
	case score.Chord:
		return fmt.Sprintf("%s [%s] %g", e.Staff, strings.Join(e.Pitches(), " "), e.Duration)
	case score.Rest:
		return fmt.Sprintf("%s rest %g", e.Staff, e.Duration)
	}
	return "?"
}
