package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/barcode"
	"github.com/rcliao/expiry-tracker/internal/ocr"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read expiration dates and barcodes off product labels",
	}

	text := &cobra.Command{
		Use:   "text [text]",
		Short: "Scan recognized label text for dates",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			printJSON(cmd, ocr.Analyze(ocr.Result{Text: strings.Join(args, " "), Confidence: 1}))
		},
	}

	image := &cobra.Command{
		Use:   "image [file...]",
		Short: "Recognize label photos and extract dates",
		Long:  "Recognize label photos with the configured OCR provider (ocr.provider: gemini, ollama or openai) and extract dates.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runScanImage,
	}
	image.Flags().Duration("timeout", 2*time.Minute, "Overall timeout")

	code := &cobra.Command{
		Use:   "barcode",
		Short: "Read barcodes from a keyboard-mode scanner on stdin",
		Long:  "Read barcodes from stdin, one per line, and look up the matching products. Stops on EOF or Ctrl-C.",
		Run:   runScanBarcode,
	}

	cmd.AddCommand(text, image, code)
	RootCmd.AddCommand(cmd)
}

func runScanImage(cmd *cobra.Command, args []string) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(ctxOf(cmd), timeout)
	defer cancel()

	r, err := ocr.New(ctx, ocr.Config{
		Provider: cfg.OCR.Provider,
		Model:    cfg.OCR.Model,
		URL:      cfg.OCR.URL,
		APIKey:   cfg.OCR.APIKey,
	})
	if err != nil {
		exitErr("ocr", err)
	}
	if r == nil {
		exitErr("ocr", errors.New("no provider configured; set ocr.provider"))
	}
	if c, ok := r.(interface{ Close() error }); ok {
		defer c.Close()
	}

	results, err := ocr.ScanFiles(ctx, r, args, cfg.OCR.Concurrency)
	if err != nil {
		exitErr("scan", err)
	}
	for _, res := range results {
		if _, ok := res.Best(); !ok {
			logger.Info("no date found", "source", res.Source)
		}
	}
	printJSON(cmd, results)
}

func runScanBarcode(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(ctxOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sc := barcode.NewLineScanner(cmd.InOrStdin())
	go func() {
		<-ctx.Done()
		sc.Stop()
	}()

	err = sc.Start(ctx, func(res barcode.Result) {
		products, err := s.Where(ctx, "barcode", res.Code)
		if err != nil {
			logger.Error("lookup barcode", "code", res.Code, "err", err)
			return
		}
		if len(products) == 0 {
			fmt.Fprintf(os.Stderr, "%s (%s): unknown; add it with `expiry-tracker add --barcode %s`\n",
				res.Code, res.Format, res.Code)
			return
		}
		printJSON(cmd, map[string]any{
			"code":     res.Code,
			"format":   res.Format,
			"products": views(products, time.Now()),
		})
	})
	if err != nil && !errors.Is(err, barcode.ErrStopped) && !errors.Is(err, context.Canceled) {
		exitErr("scan", err)
	}
}
