package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/sheet"
	"github.com/rcliao/expiry-tracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import products from JSON or a spreadsheet",
		Long: "Import products from JSON (stdin or file) in the format produced by export, " +
			"or from an .xlsx workbook with --xlsx. Products get new ids.",
		Args: cobra.MaximumNArgs(1),
		Run:  runImport,
	}

	cmd.Flags().String("xlsx", "", "Read an .xlsx workbook from this path")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	xlsx, _ := cmd.Flags().GetString("xlsx")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if xlsx != "" {
		importSheet(cmd, s, xlsx)
		return
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open file", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		exitErr("read input", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		exitErr("parse json", err)
	}

	imported, err := s.Import(ctxOf(cmd), products)
	if err != nil {
		exitErr("import", err)
	}

	printJSON(cmd, map[string]any{"ok": true, "imported": imported})
}

func importSheet(cmd *cobra.Command, s *store.SQLiteStore, path string) {
	f, err := os.Open(path)
	if err != nil {
		exitErr("open file", err)
	}
	defer f.Close()

	rows, rowErrs, err := sheet.Read(f)
	if err != nil {
		exitErr("read sheet", err)
	}

	skipped := make([]string, 0, len(rowErrs))
	for _, re := range rowErrs {
		logger.Warn("skipping row", "line", re.Line, "err", re.Err)
		skipped = append(skipped, re.Error())
	}

	imported := 0
	for _, row := range rows {
		if _, err := s.Add(ctxOf(cmd), row.Params); err != nil {
			logger.Warn("skipping row", "line", row.Line, "err", err)
			skipped = append(skipped, sheet.RowError{Line: row.Line, Err: err}.Error())
			continue
		}
		imported++
	}

	printJSON(cmd, map[string]any{"ok": true, "imported": imported, "skipped": skipped})
}
