package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSearch_Basic(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	s.Add(ctx, AddParams{Name: "Hydrating Serum", Brand: "Garnier", ExpirationDate: day(2025, 5, 1)})
	s.Add(ctx, AddParams{Name: "Night Cream", Brand: "Garnier", ExpirationDate: day(2025, 4, 1)})
	s.Add(ctx, AddParams{Name: "Lip Balm", Notes: "keep in fridge", Barcode: "4006000111222", ExpirationDate: day(2025, 6, 1)})

	// By brand, ordered by expiration
	results, err := s.Search(ctx, "garnier", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "Night Cream" {
		t.Errorf("expected soonest first, got %q", results[0].Name)
	}

	// By notes
	results, _ = s.Search(ctx, "fridge", 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	// By barcode prefix
	results, _ = s.Search(ctx, "4006", 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	// Limit
	results, _ = s.Search(ctx, "e", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result with limit, got %d", len(results))
	}

	// No results
	results, _ = s.Search(ctx, "shampoo", 0)
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}
