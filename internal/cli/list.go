package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/expiry"
	"github.com/rcliao/expiry-tracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, soonest expiry first",
		Run:   runList,
	}

	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().String("order-by", "expirationDate", "Order: expirationDate, name, createdAt, category")
	cmd.Flags().String("severity", "", "Filter by severity: error, warning, info, success")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	orderBy, _ := cmd.Flags().GetString("order-by")
	severity, _ := cmd.Flags().GetString("severity")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	products, err := s.List(ctxOf(cmd), store.ListParams{
		Category: category,
		OrderBy:  orderBy,
		Limit:    limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	list := views(products, time.Now())
	if severity != "" {
		filtered := list[:0]
		for _, v := range list {
			if v.Status.Severity == expiry.Severity(severity) {
				filtered = append(filtered, v)
			}
		}
		list = filtered
	}

	if textOutput() {
		writeTable(cmd.OutOrStdout(), list)
		return
	}
	printJSON(cmd, list)
}
