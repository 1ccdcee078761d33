package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change fields of a product",
		Long:  "Change fields of a product. Only flags that are given are applied; an empty value clears an optional field.",
		Args:  cobra.ExactArgs(1),
		Run:   runEdit,
	}

	cmd.Flags().String("name", "", "Name")
	cmd.Flags().StringP("expires", "e", "", "Expiration date")
	cmd.Flags().String("category", "", "Category")
	cmd.Flags().String("purchased", "", "Purchase date (empty clears)")
	cmd.Flags().StringP("barcode", "b", "", "Barcode")
	cmd.Flags().String("brand", "", "Brand")
	cmd.Flags().String("notes", "", "Notes")
	cmd.Flags().String("image-url", "", "Image URL")

	RootCmd.AddCommand(cmd)
}

func runEdit(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	flags := cmd.Flags()

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	params := store.UpdateParams{
		Name:     str("name"),
		Category: str("category"),
		Barcode:  str("barcode"),
		Brand:    str("brand"),
		Notes:    str("notes"),
		ImageURL: str("image-url"),
	}
	if raw := str("expires"); raw != nil {
		d, err := dates.ParseDate(*raw, time.Local)
		if err != nil {
			exitErr("expires", fmt.Errorf("could not parse %q: %w", *raw, err))
		}
		params.ExpirationDate = &d
	}
	if raw := str("purchased"); raw != nil {
		if *raw == "" {
			params.ClearPurchaseDate = true
		} else {
			d, err := dates.ParseDate(*raw, time.Local)
			if err != nil {
				exitErr("purchased", fmt.Errorf("could not parse %q: %w", *raw, err))
			}
			params.PurchaseDate = &d
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.Update(ctxOf(cmd), id, params)
	if err != nil {
		exitErr("edit", err)
	}
	printJSON(cmd, views([]model.Product{*p}, time.Now())[0])
}
