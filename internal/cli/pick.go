package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/acadcom/internal/acad"
	"github.com/vietddude/acadcom/internal/infra/proxy"
)

var pickCmd = &cobra.Command{
	Use:   "pick [filter...]",
	Short: "Select objects and list their type and handle",
	RunE:  runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	filter := strings.Join(args, " ")
	return withApplication(cfg, "pick", func(app *acad.Application) error {
		doc, err := app.ActiveDocument()
		if err != nil {
			return fmt.Errorf("read active document: %w", err)
		}
		items, err := acad.PickObjects(doc, filter, "\nSelect objects")
		if err != nil {
			return err
		}
		return printObjects(cmd.OutOrStdout(), items)
	})
}

func printObjects(out io.Writer, items []proxy.Object) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tHANDLE\tLENGTH")
	for _, item := range items {
		kind, err := proxy.Attr[string](item, "ObjectName")
		if err != nil {
			return fmt.Errorf("read object name: %w", err)
		}
		handle, err := proxy.Attr[string](item, "Handle")
		if err != nil {
			return fmt.Errorf("read handle: %w", err)
		}
		length, err := acad.EntityLength(item)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.4f\n", kind, handle, length)
	}
	return w.Flush()
}
