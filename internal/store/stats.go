package store

import (
	"context"
	"os"
	"time"

	"github.com/rcliao/expiry-tracker/internal/expiry"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string          `json:"db_path"`
	DBSizeBytes   int64           `json:"db_size_bytes"`
	TotalProducts int             `json:"total_products"`
	TotalAlerts   int             `json:"total_alerts"`
	Categories    []CategoryStats `json:"categories"`
	Severities    map[string]int  `json:"severities"`
}

// CategoryStats holds per-category counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats returns database statistics. Severity counts are computed
// against now.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string, now time.Time) (*Stats, error) {
	st := &Stats{DBPath: dbPath, Severities: map[string]int{}}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&st.TotalProducts)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&st.TotalAlerts)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) as cnt
		FROM products
		GROUP BY category ORDER BY cnt DESC, category`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var c CategoryStats
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return st, err
		}
		st.Categories = append(st.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	for _, sev := range expiry.Severities {
		st.Severities[string(sev)] = 0
	}
	products, err := s.All(ctx)
	if err != nil {
		return st, err
	}
	for _, p := range products {
		st.Severities[string(expiry.Classify(p.ExpirationDate, now).Severity)]++
	}

	return st, nil
}
