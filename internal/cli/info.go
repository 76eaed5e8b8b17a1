package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/acadcom/internal/acad"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the attached application and its open documents",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	return withApplication(cfg, "info", func(app *acad.Application) error {
		info, err := app.Info()
		if err != nil {
			return err
		}
		printInfo(cmd.OutOrStdout(), info)
		return nil
	})
}

func printInfo(out io.Writer, info *acad.Info) {
	_, _ = fmt.Fprintf(out, "%s %s\n", info.Name, info.Version)
	if len(info.Documents) == 0 {
		_, _ = fmt.Fprintln(out, "No open documents")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "DOCUMENT\tACTIVE")
	for _, name := range info.Documents {
		active := ""
		if name == info.Active {
			active = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, active)
	}
	_ = w.Flush()
}
