package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expiry-tracker/internal/model"
)

var now = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func product(id int64, name string, exp time.Time) model.Product {
	return model.Product{ID: id, Name: name, Category: "Other", ExpirationDate: exp}
}

func ids(alerts []Alert) []int64 {
	out := []int64{}
	for _, a := range alerts {
		out = append(out, a.Product.ID)
	}
	return out
}

func TestDecide_Buckets(t *testing.T) {
	products := []model.Product{
		product(1, "expired", now.AddDate(0, 0, -3)),
		product(2, "today", now),
		product(3, "seven", now.AddDate(0, 0, 7)),
		product(4, "eight", now.AddDate(0, 0, 8)),
		product(5, "far", now.AddDate(1, 0, 0)),
		product(0, "unsaved", now.AddDate(0, 0, -1)),
	}

	d := Decide(products, &State{}, now)

	assert.Equal(t, []int64{1, 2, 3}, ids(d.Alerts))
	assert.True(t, d.Alerts[0].Expired)
	assert.False(t, d.Alerts[1].Expired)
	assert.Equal(t, 3, d.State.Len())
	for _, id := range []int64{1, 2, 3} {
		got, ok := d.State.Get(id)
		require.True(t, ok)
		assert.Equal(t, now, got)
	}
	_, ok := d.State.Get(4)
	assert.False(t, ok, "no alert means no state entry")
}

func TestDecide_Throttle(t *testing.T) {
	last := now
	products := []model.Product{product(1, "cream", now.AddDate(0, 0, 2))}
	state := NewState(Entry{ProductID: 1, LastNotified: last})

	d := Decide(products, state, last.Add(23*time.Hour))
	assert.Empty(t, d.Alerts, "within 24h of the last alert")

	d = Decide(products, state, last.Add(24*time.Hour))
	assert.Len(t, d.Alerts, 1, "exactly 24h later the window has passed")

	d = Decide(products, state, last.Add(25*time.Hour))
	require.Len(t, d.Alerts, 1)
	got, _ := d.State.Get(1)
	assert.Equal(t, last.Add(25*time.Hour), got)
}

func TestDecide_RollingWindowIgnoresCalendarDays(t *testing.T) {
	last := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	products := []model.Product{product(1, "cream", last.AddDate(0, 0, 3))}
	state := NewState(Entry{ProductID: 1, LastNotified: last})

	d := Decide(products, state, last.Add(2*time.Hour))
	assert.Empty(t, d.Alerts, "a new calendar day does not reset the window")
}

func TestDecide_Prune(t *testing.T) {
	products := []model.Product{product(2, "far", now.AddDate(1, 0, 0))}
	state := NewState(
		Entry{ProductID: 1, LastNotified: now.Add(-time.Hour)},
		Entry{ProductID: 2, LastNotified: now.Add(-48 * time.Hour)},
		Entry{ProductID: 3, LastNotified: now.Add(-time.Hour)},
	)

	d := Decide(products, state, now)

	assert.Empty(t, d.Alerts)
	assert.Equal(t, []int64{1, 3}, d.Pruned)
	assert.Equal(t, []Entry{{ProductID: 2, LastNotified: now.Add(-48 * time.Hour)}}, d.State.Entries())
}

func TestDecide_DoesNotMutateInput(t *testing.T) {
	products := []model.Product{product(1, "x", now)}
	state := NewState(Entry{ProductID: 9, LastNotified: now})

	Decide(products, state, now)

	assert.Equal(t, []Entry{{ProductID: 9, LastNotified: now}}, state.Entries())
}

func TestDecide_NoDuplicateStorm(t *testing.T) {
	products := []model.Product{
		product(1, "a", now.AddDate(0, 0, -1)),
		product(2, "b", now.AddDate(0, 0, 1)),
	}

	first := Decide(products, &State{}, now)
	second := Decide(products, first.State, now)

	assert.Len(t, first.Alerts, 2)
	assert.Empty(t, second.Alerts)
}

func TestAlert_Notification(t *testing.T) {
	exp := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	p := product(12, "Toner", exp)

	n := Alert{Product: p, Expired: true}.Notification("")
	assert.Equal(t, "🔴 Product Expired!", n.Title)
	assert.Equal(t, "Toner has expired on 31.12.2024", n.Body)
	assert.Equal(t, "product-12", n.Tag)
	assert.Equal(t, DefaultClickURL, n.URL)
	assert.True(t, n.RequireInteraction)
	assert.Equal(t, model.AlertExpired, Alert{Expired: true}.Kind())

	n = Alert{Product: p}.Notification("http://localhost:8080/products")
	assert.Equal(t, "⚠️ Product Expiring Soon!", n.Title)
	assert.Equal(t, "Toner will expire on 31.12.2024", n.Body)
	assert.Equal(t, "http://localhost:8080/products", n.URL)
	assert.False(t, n.RequireInteraction)
	assert.Equal(t, model.AlertExpiringSoon, Alert{}.Kind())
}
