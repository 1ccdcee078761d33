package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/notify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check for expiring products periodically",
		Long:  "Run a notification pass now and then every notify.interval (default 6h) until interrupted.",
		Run:   runWatch,
	}

	cmd.Flags().Duration("interval", 0, "Override notify.interval")

	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.Notify.Interval
	}

	ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	c, err := newChecker(s)
	if err != nil {
		exitErr("notify", err)
	}

	logger.Info("watching for expiring products", "interval", interval.String())
	loop := notify.Start(ctx, interval, func(ctx context.Context) {
		c.CheckAndNotify(ctx)
	})

	<-ctx.Done()
	loop.Stop()
	loop.Wait()
	logger.Info("watch stopped")
}
