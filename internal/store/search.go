package store

import (
	"context"
	"fmt"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/model"
)

// whereColumns are the indexed fields Where accepts.
var whereColumns = map[string]string{
	"name":            "name",
	"category":        "category",
	"barcode":         "barcode",
	"brand":           "brand",
	"expirationDate":  "expiration_date",
	"expiration_date": "expiration_date",
}

// Where returns products whose field equals value exactly. Date fields
// accept anything dates.Normalize understands.
func (s *SQLiteStore) Where(ctx context.Context, field, value string) ([]model.Product, error) {
	col, ok := whereColumns[field]
	if !ok {
		return nil, fmt.Errorf("cannot query by %q", field)
	}
	if col == "expiration_date" {
		d, err := dates.Normalize(value)
		if err != nil {
			return nil, err
		}
		value = d
	}

	return s.query(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+col+` = ? ORDER BY id`, value)
}

// Search finds products whose name, brand, barcode or notes contain query.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"

	return s.query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE name LIKE ? OR brand LIKE ? OR barcode LIKE ? OR notes LIKE ?
		ORDER BY expiration_date, id
		LIMIT ?`, like, like, like, like, limit)
}
