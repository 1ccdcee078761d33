package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/expiry-tracker/internal/alert"
	"github.com/rcliao/expiry-tracker/internal/model"
)

// Products is the product collection a pass reads.
type Products interface {
	All(ctx context.Context) ([]model.Product, error)
}

// KV holds the persisted notification state.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Gate reports whether alerts may be delivered.
type Gate interface {
	Granted(ctx context.Context) (bool, error)
}

// History records delivered alerts.
type History interface {
	RecordAlert(ctx context.Context, a model.AlertRecord) (*model.AlertRecord, error)
}

// SkippedPermission is Report.Skipped when alerts are not permitted.
const SkippedPermission = "permission"

// Report summarizes one pass.
type Report struct {
	PassID   string               `json:"pass_id"`
	At       time.Time            `json:"at"`
	Skipped  string               `json:"skipped,omitempty"`
	Products int                  `json:"products"`
	Sent     []alert.Notification `json:"sent"`
	Failed   int                  `json:"failed"`
	Pruned   []int64              `json:"pruned,omitempty"`
	Err      error                `json:"-"`
	Error    string               `json:"error,omitempty"`
}

func (r *Report) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Checker runs decision passes against storage and delivers the alerts.
type Checker struct {
	products   Products
	kv         KV
	gate       Gate
	dispatcher alert.Dispatcher
	logger     *slog.Logger

	// History is optional.
	History History
	// ClickURL is attached to every alert; empty means DefaultClickURL.
	ClickURL string
	// Now returns the pass time.
	Now func() time.Time
}

// NewChecker returns a Checker. A nil logger uses slog.Default.
func NewChecker(products Products, kv KV, gate Gate, d alert.Dispatcher, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		products:   products,
		kv:         kv,
		gate:       gate,
		dispatcher: d,
		logger:     logger.With("component", "notify"),
		Now:        time.Now,
	}
}

// CheckAndNotify runs one pass. It never returns an error: storage
// failures are logged and reported in Report.Err, and the next pass starts
// from scratch.
func (c *Checker) CheckAndNotify(ctx context.Context) Report {
	now := c.Now()
	r := Report{PassID: ulid.Make().String(), At: now, Sent: []alert.Notification{}}
	log := c.logger.With("pass_id", r.PassID)

	granted, err := c.gate.Granted(ctx)
	if err != nil {
		log.Error("read permission failed", "err", err)
		r.fail(err)
		return r
	}
	if !granted {
		log.Debug("alerts not permitted, skipping pass")
		r.Skipped = SkippedPermission
		return r
	}

	products, err := c.products.All(ctx)
	if err != nil {
		log.Error("read products failed", "err", err)
		r.fail(err)
		return r
	}
	r.Products = len(products)

	raw, _, err := c.kv.GetValue(ctx, StateKey)
	if err != nil {
		log.Error("read notification state failed", "err", err)
		r.fail(err)
		return r
	}
	state, err := ParseState(raw)
	if err != nil {
		log.Warn("discarding unreadable notification state", "err", err)
		state = &State{}
	}

	d := Decide(products, state, now)
	r.Pruned = d.Pruned

	for _, a := range d.Alerts {
		n := a.Notification(c.ClickURL)
		if err := c.dispatcher.Dispatch(ctx, n); err != nil {
			log.Warn("dispatch failed", "product_id", a.Product.ID, "err", err)
			r.Failed++
			if prev, ok := state.Get(a.Product.ID); ok {
				d.State.Set(a.Product.ID, prev)
			} else {
				d.State.Delete(a.Product.ID)
			}
			continue
		}
		r.Sent = append(r.Sent, n)

		if c.History != nil {
			_, err := c.History.RecordAlert(ctx, model.AlertRecord{
				ProductID: a.Product.ID,
				Kind:      a.Kind(),
				Title:     n.Title,
				Body:      n.Body,
				Tag:       n.Tag,
				SentAt:    now,
			})
			if err != nil {
				log.Warn("record alert failed", "product_id", a.Product.ID, "err", err)
			}
		}
	}

	data, err := json.Marshal(d.State)
	if err != nil {
		log.Error("encode notification state failed", "err", err)
		r.fail(err)
		return r
	}
	if err := c.kv.SetValue(ctx, StateKey, string(data)); err != nil {
		log.Error("write notification state failed", "err", err)
		r.fail(err)
		return r
	}

	log.Info("notification pass complete",
		"products", r.Products, "sent", len(r.Sent), "failed", r.Failed, "pruned", len(r.Pruned))
	return r
}
