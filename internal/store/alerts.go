package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/expiry-tracker/internal/model"
)

// RecordAlert appends a delivered alert to the history. An empty ID or
// zero SentAt is filled in.
func (s *SQLiteStore) RecordAlert(ctx context.Context, a model.AlertRecord) (*model.AlertRecord, error) {
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.SentAt.IsZero() {
		a.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, product_id, kind, title, body, tag, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProductID, string(a.Kind), a.Title, a.Body, a.Tag, a.SentAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return &a, nil
}

// ListAlerts returns the most recent alerts first. productID 0 means all
// products; limit 0 means 50.
func (s *SQLiteStore) ListAlerts(ctx context.Context, productID int64, limit int) ([]model.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, product_id, kind, title, body, tag, sent_at FROM alerts`
	args := []interface{}{}
	if productID != 0 {
		query += ` WHERE product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY sent_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.AlertRecord
	for rows.Next() {
		var a model.AlertRecord
		var kind, sentAt string
		if err := rows.Scan(&a.ID, &a.ProductID, &kind, &a.Title, &a.Body, &a.Tag, &sentAt); err != nil {
			return nil, err
		}
		a.Kind = model.AlertKind(kind)
		a.SentAt, _ = time.Parse(time.RFC3339Nano, sentAt)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
