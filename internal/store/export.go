package store

import (
	"context"

	"github.com/rcliao/expiry-tracker/internal/model"
)

// ExportAll returns all products, optionally filtered by category.
func (s *SQLiteStore) ExportAll(ctx context.Context, category string) ([]model.Product, error) {
	if category == "" {
		return s.All(ctx)
	}
	return s.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY id`, category)
}

// Import stores products from an export. Ids are reassigned; products that
// fail validation stop the import and the count so far is returned.
func (s *SQLiteStore) Import(ctx context.Context, products []model.Product) (int, error) {
	imported := 0
	for _, p := range products {
		_, err := s.Add(ctx, AddParams{
			Name:           p.Name,
			Category:       p.Category,
			ExpirationDate: p.ExpirationDate,
			PurchaseDate:   p.PurchaseDate,
			Barcode:        p.Barcode,
			Brand:          p.Brand,
			Notes:          p.Notes,
			ImageURL:       p.ImageURL,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
