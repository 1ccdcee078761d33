package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search products by keyword",
		Long:  "Search product names, brands, barcodes and notes for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(ctxOf(cmd), query, limit)
	if err != nil {
		exitErr("search", err)
	}

	list := views(results, time.Now())
	if textOutput() {
		writeTable(cmd.OutOrStdout(), list)
		return
	}
	printJSON(cmd, list)
}
