// Package cli implements the expiry-tracker CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/config"
	"github.com/rcliao/expiry-tracker/internal/logging"
	"github.com/rcliao/expiry-tracker/internal/store"
)

var (
	dbPath     string
	cfgPath    string
	logLevel   string
	formatFlag string

	cfg    *config.Config
	logger *slog.Logger
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "expiry-tracker",
	Short: "Track product expiration dates",
	Long: "Track cosmetics and other products by expiration date. Reads dates off labels, " +
		"classifies urgency and sends reminders. SQLite-backed, single binary.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			c.DB.Path = dbPath
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c
		logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		slog.SetDefault(logger)
		logger.Debug("config loaded", "config", cfg.String())
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: db.path from config or ~/.expiry-tracker/products.db)")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: ./config.yaml if present)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDBPath() string {
	return cfg.DB.Path
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func textOutput() bool {
	return formatFlag == "text"
}

func parseID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		exitErr("parse id", fmt.Errorf("invalid product id %q", raw))
	}
	return id
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
