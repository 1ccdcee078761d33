package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/sheet"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export products as JSON or a spreadsheet",
		Long:  "Export products as JSON to stdout, or as an .xlsx workbook with --xlsx. Filter by category with --category.",
		Run:   runExport,
	}

	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().String("xlsx", "", "Write an .xlsx workbook to this path")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	xlsx, _ := cmd.Flags().GetString("xlsx")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	products, err := s.ExportAll(ctxOf(cmd), category)
	if err != nil {
		exitErr("export", err)
	}

	if xlsx == "" {
		printJSON(cmd, products)
		return
	}

	f, err := os.Create(xlsx)
	if err != nil {
		exitErr("create file", err)
	}
	if err := sheet.Write(f, products, time.Now()); err != nil {
		f.Close()
		exitErr("export", err)
	}
	if err := f.Close(); err != nil {
		exitErr("export", err)
	}
	printJSON(cmd, map[string]any{"ok": true, "exported": len(products), "path": xlsx})
}
