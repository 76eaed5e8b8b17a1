package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vietddude/acadcom/internal/acad"
)

var lengthCmd = &cobra.Command{
	Use:   "length [filter...]",
	Short: "Sum the length of selected lines, polylines, arcs and multilines",
	Long: `Prompts for objects in the active drawing and prints their total length.
The optional filter lists object types to keep, e.g. "line pl arc".`,
	RunE: runLength,
}

func init() {
	rootCmd.AddCommand(lengthCmd)
}

func runLength(cmd *cobra.Command, args []string) error {
	filter := strings.Join(args, " ")
	return withApplication(cfg, "length", func(app *acad.Application) error {
		doc, err := app.ActiveDocument()
		if err != nil {
			return fmt.Errorf("read active document: %w", err)
		}
		items, err := acad.PickObjects(doc, filter, "\nSelect objects to measure")
		if err != nil {
			return err
		}
		total, err := acad.SumLengths(items)
		if err != nil {
			return err
		}

		p, err := acad.NewPrompter(doc)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Total length of %d objects: %.4f", len(items), total)
		_ = p.Message("\n" + msg + "\n")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	})
}
