// Package alert delivers expiry notifications to the user and guards
// delivery behind a persisted permission.
package alert

import (
	"context"
	"errors"
	"fmt"
)

// Notification is one alert ready for delivery.
type Notification struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	// Tag lets a delivery surface collapse repeated alerts for one product.
	Tag string `json:"tag"`
	// RequireInteraction marks alerts that should stay until dismissed.
	RequireInteraction bool   `json:"require_interaction"`
	URL                string `json:"url,omitempty"`
}

// Dispatcher delivers a notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Func adapts a plain function to Dispatcher.
type Func func(ctx context.Context, n Notification) error

func (f Func) Dispatch(ctx context.Context, n Notification) error { return f(ctx, n) }

// Multi sends every notification to all of its dispatchers. A failing
// dispatcher does not stop the others; the errors are joined.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, n Notification) error {
	var errs []error
	for i, d := range m {
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
