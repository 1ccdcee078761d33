package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a product",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("alerts", false, "Include alert history")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	withAlerts, _ := cmd.Flags().GetBool("alerts")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Get(ctxOf(cmd), id)
	if err != nil {
		exitErr("get", err)
	}
	v := views([]model.Product{*p}, time.Now())[0]

	if !withAlerts {
		printJSON(cmd, v)
		return
	}
	alerts, err := s.ListAlerts(ctxOf(cmd), id, 0)
	if err != nil {
		exitErr("alerts", err)
	}
	printJSON(cmd, struct {
		productView
		Alerts []model.AlertRecord `json:"alerts"`
	}{v, alerts})
}
