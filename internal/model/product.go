// Package model defines the core product data types.
package model

import "time"

// Product is a tracked item with an expiration date.
type Product struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	ExpirationDate time.Time  `json:"expiration_date"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	Barcode        string     `json:"barcode,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DefaultCategory is used when no category is given.
const DefaultCategory = "Other"

// Categories are the allowed product categories, in display order.
var Categories = []string{
	"Makeup - Face",
	"Makeup - Eyes",
	"Makeup - Lips",
	"Skincare",
	"Hair Care",
	"Fragrance",
	"Other",
}

// ValidCategories is Categories as a set.
var ValidCategories = map[string]bool{}

func init() {
	for _, c := range Categories {
		ValidCategories[c] = true
	}
}

// AlertKind says why an alert fired.
type AlertKind string

const (
	AlertExpired      AlertKind = "expired"
	AlertExpiringSoon AlertKind = "expiring_soon"
)

// AlertRecord is one delivered alert, kept for history.
type AlertRecord struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"product_id"`
	Kind      AlertKind `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tag       string    `json:"tag"`
	SentAt    time.Time `json:"sent_at"`
}
