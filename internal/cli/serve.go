package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/expiry-tracker/internal/api"
	"github.com/rcliao/expiry-tracker/internal/notify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API and run scheduled checks",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")
	cmd.Flags().Bool("no-watch", false, "Do not run scheduled notification passes")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if addr == "" {
		addr = cfg.Server.Addr
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

	h := api.NewHandler(s, c, logger)
	srv := api.NewHTTPServer(api.HTTPConfig{
		Addr:         addr,
		ReadTimeout:  cfg.Server.Timeout.Read,
		WriteTimeout: cfg.Server.Timeout.Write,
		IdleTimeout:  cfg.Server.Timeout.Idle,
	}, api.NewRouter(h, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !noWatch {
		g.Go(func() error {
			loop := notify.Start(gctx, cfg.Notify.Interval, func(ctx context.Context) {
				c.CheckAndNotify(ctx)
			})
			<-gctx.Done()
			loop.Stop()
			loop.Wait()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		exitErr("serve", err)
	}
}
