// Package store provides the product storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/expiry-tracker/internal/model"
)

// ErrNotFound is returned when a product id does not exist.
var ErrNotFound = errors.New("product not found")

// AddParams holds parameters for storing a new product.
type AddParams struct {
	Name           string     `json:"name" validate:"required,max=200"`
	Category       string     `json:"category" validate:"category"`
	ExpirationDate time.Time  `json:"expiration_date" validate:"required"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	Barcode        string     `json:"barcode,omitempty" validate:"max=64"`
	Brand          string     `json:"brand,omitempty" validate:"max=200"`
	Notes          string     `json:"notes,omitempty"`
	ImageURL       string     `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdateParams holds a partial update. Nil fields are left unchanged; a
// pointer to an empty string clears an optional field.
type UpdateParams struct {
	Name              *string    `validate:"omitnil,min=1,max=200"`
	Category          *string    `validate:"omitnil,category"`
	ExpirationDate    *time.Time
	PurchaseDate      *time.Time
	ClearPurchaseDate bool
	Barcode           *string `validate:"omitnil,max=64"`
	Brand             *string `validate:"omitnil,max=200"`
	Notes             *string
	ImageURL          *string `validate:"omitempty,url"`
}

// ListParams holds parameters for listing products.
type ListParams struct {
	Category string
	OrderBy  string // expirationDate (default), name, createdAt, category
	Limit    int    // 0 means no limit
}

// Store defines the product storage interface.
type Store interface {
	// Add stores a new product and returns it with its assigned id.
	Add(ctx context.Context, p AddParams) (*model.Product, error)

	// Get retrieves a product by id.
	Get(ctx context.Context, id int64) (*model.Product, error)

	// Update applies a partial update and refreshes UpdatedAt.
	Update(ctx context.Context, id int64, p UpdateParams) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id int64) error

	// All returns every product in id order.
	All(ctx context.Context) ([]model.Product, error)

	// Where returns products whose indexed field equals value.
	Where(ctx context.Context, field, value string) ([]model.Product, error)

	// List returns products filtered and ordered by p.
	List(ctx context.Context, p ListParams) ([]model.Product, error)

	// Close closes the store.
	Close() error
}

// KV is the small key-value area kept next to the products.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}
