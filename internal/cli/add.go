package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a product",
		Long: "Add a product. The expiration date accepts label formats like 12.06.2025, " +
			"06.2025, 06/2025, 2025-06-12 or MHD 12.06.2025.",
		Args: cobra.MinimumNArgs(1),
		Run:  runAdd,
	}

	cmd.Flags().StringP("expires", "e", "", "Expiration date (required)")
	cmd.Flags().String("category", "", "Category (default: Other)")
	cmd.Flags().String("purchased", "", "Purchase date")
	cmd.Flags().StringP("barcode", "b", "", "Barcode")
	cmd.Flags().String("brand", "", "Brand")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().String("image-url", "", "Image URL")

	cmd.MarkFlagRequired("expires")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	expires, _ := cmd.Flags().GetString("expires")
	category, _ := cmd.Flags().GetString("category")
	purchased, _ := cmd.Flags().GetString("purchased")
	barcode, _ := cmd.Flags().GetString("barcode")
	brand, _ := cmd.Flags().GetString("brand")
	notes, _ := cmd.Flags().GetString("notes")
	imageURL, _ := cmd.Flags().GetString("image-url")

	exp, err := dates.ParseDate(expires, time.Local)
	if err != nil {
		exitErr("expires", fmt.Errorf("could not parse %q: %w", expires, err))
	}
	params := store.AddParams{
		Name:           strings.Join(args, " "),
		Category:       category,
		ExpirationDate: exp,
		Barcode:        barcode,
		Brand:          brand,
		Notes:          notes,
		ImageURL:       imageURL,
	}
	if purchased != "" {
		d, err := dates.ParseDate(purchased, time.Local)
		if err != nil {
			exitErr("purchased", fmt.Errorf("could not parse %q: %w", purchased, err))
		}
		params.PurchaseDate = &d
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Add(ctxOf(cmd), params)
	if err != nil {
		exitErr("add", err)
	}

	printJSON(cmd, views([]model.Product{*p}, time.Now())[0])
}
