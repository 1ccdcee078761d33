package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/alert"
	"github.com/rcliao/expiry-tracker/internal/notify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Check for expiring products and manage alerts",
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Run one notification pass now",
		Run:   runNotifyCheck,
	}
	enable := &cobra.Command{
		Use:   "enable",
		Short: "Ask for permission to send alerts",
		Run:   runNotifyEnable,
	}
	disable := &cobra.Command{
		Use:   "disable",
		Short: "Refuse alerts",
		Run:   runNotifyDisable,
	}
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the alert permission decision",
		Run:   runNotifyReset,
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the alert permission state",
		Run:   runNotifyStatus,
	}
	history := &cobra.Command{
		Use:   "history [id]",
		Short: "Show delivered alerts, optionally for one product",
		Args:  cobra.MaximumNArgs(1),
		Run:   runNotifyHistory,
	}
	history.Flags().IntP("limit", "l", 50, "Max results")

	cmd.AddCommand(check, enable, disable, reset, status, history)
	RootCmd.AddCommand(cmd)
}

func runNotifyCheck(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	c, err := newChecker(s)
	if err != nil {
		exitErr("notify", err)
	}
	r := c.CheckAndNotify(ctxOf(cmd))
	if r.Skipped == notify.SkippedPermission {
		fmt.Fprintln(os.Stderr, "alerts are not enabled; run `expiry-tracker notify enable`")
	}
	printJSON(cmd, r)
	if r.Err != nil {
		os.Exit(1)
	}
}

func runNotifyEnable(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p := alert.NewPermission(s, alert.LinePrompter{In: os.Stdin, Out: os.Stderr})
	state, err := p.State(ctxOf(cmd))
	if err != nil {
		exitErr("permission", err)
	}
	if state == alert.PermissionDenied {
		fmt.Fprintln(os.Stderr, "alerts were refused earlier; run `expiry-tracker notify reset` first")
	}
	ok, err := p.Request(ctxOf(cmd))
	if err != nil {
		exitErr("permission", err)
	}
	printJSON(cmd, map[string]any{"granted": ok})
}

func runNotifyDisable(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := alert.NewPermission(s, nil).Deny(ctxOf(cmd)); err != nil {
		exitErr("permission", err)
	}
	printJSON(cmd, map[string]any{"permission": alert.PermissionDenied})
}

func runNotifyReset(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := alert.NewPermission(s, nil).Reset(ctxOf(cmd)); err != nil {
		exitErr("permission", err)
	}
	printJSON(cmd, map[string]any{"permission": alert.PermissionDefault})
}

func runNotifyStatus(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	state, err := alert.NewPermission(s, nil).State(ctxOf(cmd))
	if err != nil {
		exitErr("permission", err)
	}
	printJSON(cmd, map[string]any{
		"permission": state,
		"console":    cfg.Notify.Console,
		"telegram":   cfg.TelegramEnabled(),
		"interval":   cfg.Notify.Interval.String(),
	})
}

func runNotifyHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	var id int64
	if len(args) == 1 {
		id = parseID(args[0])
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	alerts, err := s.ListAlerts(ctxOf(cmd), id, limit)
	if err != nil {
		exitErr("history", err)
	}
	printJSON(cmd, alerts)
}
