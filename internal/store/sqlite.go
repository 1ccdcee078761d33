package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/model"
)

// SQLiteStore implements Store and KV using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	validate *validator.Validate
	loc      *time.Location
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		validate: model.NewValidator(),
		loc:      time.Local,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		category        TEXT NOT NULL DEFAULT 'Other',
		expiration_date TEXT NOT NULL,
		purchase_date   TEXT,
		barcode         TEXT,
		brand           TEXT,
		notes           TEXT,
		image_url       TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_products_expiration ON products(expiration_date);
	CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode);
	CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at);

	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id         TEXT PRIMARY KEY,
		product_id INTEGER NOT NULL,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		tag        TEXT NOT NULL,
		sent_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_product ON alerts(product_id, sent_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const productColumns = `id, name, category, expiration_date, purchase_date, barcode, brand,
	notes, image_url, created_at, updated_at`

func (s *SQLiteStore) Add(ctx context.Context, p AddParams) (*model.Product, error) {
	if p.Category == "" {
		p.Category = model.DefaultCategory
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid product: %w", err)
	}

	now := time.Now().UTC()
	ts := now.Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, category, expiration_date, purchase_date, barcode, brand, notes, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Category, p.ExpirationDate.Format(dates.Layout), datePtr(p.PurchaseDate),
		nullable(p.Barcode), nullable(p.Brand), nullable(p.Notes), nullable(p.ImageURL), ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := s.scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, p UpdateParams) (*model.Product, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("invalid update: %w", err)
	}

	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if p.Name != nil {
		set("name", strings.TrimSpace(*p.Name))
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.ExpirationDate != nil {
		set("expiration_date", p.ExpirationDate.Format(dates.Layout))
	}
	if p.ClearPurchaseDate {
		set("purchase_date", nil)
	} else if p.PurchaseDate != nil {
		set("purchase_date", p.PurchaseDate.Format(dates.Layout))
	}
	if p.Barcode != nil {
		set("barcode", nullable(*p.Barcode))
	}
	if p.Brand != nil {
		set("brand", nullable(*p.Brand))
	}
	if p.Notes != nil {
		set("notes", nullable(*p.Notes))
	}
	if p.ImageURL != nil {
		set("image_url", nullable(*p.ImageURL))
	}
	set("updated_at", time.Now().UTC().Format(time.RFC3339))
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// orderColumns maps accepted ordering names to columns.
var orderColumns = map[string]string{
	"":                "expiration_date",
	"expirationDate":  "expiration_date",
	"expiration_date": "expiration_date",
	"name":            "name COLLATE NOCASE",
	"createdAt":       "created_at",
	"created_at":      "created_at",
	"category":        "category",
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Product, error) {
	col, ok := orderColumns[p.OrderBy]
	if !ok {
		return nil, fmt.Errorf("cannot order by %q", p.OrderBy)
	}

	var where []string
	var args []interface{}
	if p.Category != "" {
		where = append(where, "category = ?")
		args = append(args, p.Category)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + col + ", id"
	if p.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, p.Limit)
	}

	return s.query(ctx, query, args...)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanProduct(row scanner) (model.Product, error) {
	var p model.Product
	var expiration, createdAt, updatedAt string
	var purchase, barcode, brand, notes, imageURL sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &expiration, &purchase, &barcode, &brand,
		&notes, &imageURL, &createdAt, &updatedAt,
	)
	if err != nil {
		return p, err
	}

	p.ExpirationDate, err = time.ParseInLocation(dates.Layout, expiration, s.loc)
	if err != nil {
		return p, fmt.Errorf("product %d: bad expiration date %q: %w", p.ID, expiration, err)
	}
	if purchase.Valid {
		t, err := time.ParseInLocation(dates.Layout, purchase.String, s.loc)
		if err == nil {
			p.PurchaseDate = &t
		}
	}
	p.Barcode = barcode.String
	p.Brand = brand.String
	p.Notes = notes.String
	p.ImageURL = imageURL.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dates.Layout)
	return &s
}
