package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vietddude/acadcom/internal/acad"
)

var distCmd = &cobra.Command{
	Use:   "dist",
	Short: "Measure a path picked point by point",
	Args:  cobra.NoArgs,
	RunE:  runDist,
}

func init() {
	rootCmd.AddCommand(distCmd)
}

func runDist(cmd *cobra.Command, args []string) error {
	return withApplication(cfg, "dist", func(app *acad.Application) error {
		doc, err := app.ActiveDocument()
		if err != nil {
			return fmt.Errorf("read active document: %w", err)
		}
		p, err := acad.NewPrompter(doc)
		if err != nil {
			return err
		}

		in, err := p.Distance(acad.Options{})
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Distance: %.4f", in.Value)
		_ = p.Message("\n" + msg + "\n")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	})
}
