// Package notify decides which products warrant an expiry alert and runs
// that decision on a schedule.
package notify

import (
	"fmt"
	"time"

	"github.com/rcliao/expiry-tracker/internal/alert"
	"github.com/rcliao/expiry-tracker/internal/expiry"
	"github.com/rcliao/expiry-tracker/internal/model"
)

// Window is the minimum time between two alerts for the same product. It
// is measured from the previous alert, not from a calendar day boundary.
const Window = 24 * time.Hour

// DefaultClickURL is opened when the user clicks an alert.
const DefaultClickURL = "/products"

// Alert is one product that should be notified about.
type Alert struct {
	Product  model.Product
	Expired  bool
	DaysLeft int
}

// Kind returns the history kind for the alert.
func (a Alert) Kind() model.AlertKind {
	if a.Expired {
		return model.AlertExpired
	}
	return model.AlertExpiringSoon
}

// Notification renders the alert for delivery.
func (a Alert) Notification(clickURL string) alert.Notification {
	if clickURL == "" {
		clickURL = DefaultClickURL
	}
	date := a.Product.ExpirationDate.Format("02.01.2006")
	n := alert.Notification{
		ProductID: a.Product.ID,
		Tag:       fmt.Sprintf("product-%d", a.Product.ID),
		URL:       clickURL,
	}
	if a.Expired {
		n.Title = "🔴 Product Expired!"
		n.Body = fmt.Sprintf("%s has expired on %s", a.Product.Name, date)
		n.RequireInteraction = true
	} else {
		n.Title = "⚠️ Product Expiring Soon!"
		n.Body = fmt.Sprintf("%s will expire on %s", a.Product.Name, date)
	}
	return n
}

// Decision is the outcome of one decision pass.
type Decision struct {
	Alerts []Alert
	State  *State
	// Pruned lists ids dropped from the state because their product is gone.
	Pruned []int64
}

// Decide evaluates products in order against state at now. state is not
// modified; the updated state is returned in the Decision.
func Decide(products []model.Product, state *State, now time.Time) Decision {
	next := state.Clone()
	d := Decision{Alerts: []Alert{}, State: next}
	present := make(map[int64]bool, len(products))

	for _, p := range products {
		if p.ID == 0 {
			continue
		}
		present[p.ID] = true

		if last, ok := state.Get(p.ID); ok && last.After(now.Add(-Window)) {
			continue
		}

		days := expiry.DaysUntil(p.ExpirationDate, now)
		switch {
		case days < 0:
			d.Alerts = append(d.Alerts, Alert{Product: p, Expired: true, DaysLeft: days})
		case days <= expiry.SoonDays:
			d.Alerts = append(d.Alerts, Alert{Product: p, DaysLeft: days})
		default:
			continue
		}
		next.Set(p.ID, now)
	}

	for _, e := range next.Entries() {
		if !present[e.ProductID] {
			next.Delete(e.ProductID)
			d.Pruned = append(d.Pruned, e.ProductID)
		}
	}

	return d
}
