package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expiry-tracker/internal/alert"
	"github.com/rcliao/expiry-tracker/internal/model"
)

type fakeProducts struct {
	list []model.Product
	err  error
}

func (f *fakeProducts) All(context.Context) ([]model.Product, error) { return f.list, f.err }

type fakeKV struct {
	m        map[string]string
	getErr   error
	setErr   error
	setCalls int
}

func (k *fakeKV) GetValue(_ context.Context, key string) (string, bool, error) {
	if k.getErr != nil {
		return "", false, k.getErr
	}
	v, ok := k.m[key]
	return v, ok, nil
}

func (k *fakeKV) SetValue(_ context.Context, key, value string) error {
	k.setCalls++
	if k.setErr != nil {
		return k.setErr
	}
	k.m[key] = value
	return nil
}

type gate bool

func (g gate) Granted(context.Context) (bool, error) { return bool(g), nil }

type recorder struct {
	sent   []alert.Notification
	failOn map[int64]bool
}

func (r *recorder) Dispatch(_ context.Context, n alert.Notification) error {
	if r.failOn[n.ProductID] {
		return errors.New("delivery failed")
	}
	r.sent = append(r.sent, n)
	return nil
}

type history struct{ records []model.AlertRecord }

func (h *history) RecordAlert(_ context.Context, a model.AlertRecord) (*model.AlertRecord, error) {
	h.records = append(h.records, a)
	return &a, nil
}

type fixture struct {
	products *fakeProducts
	kv       *fakeKV
	rec      *recorder
	hist     *history
	checker  *Checker
	at       time.Time
}

func newFixture(granted bool, products ...model.Product) *fixture {
	f := &fixture{
		products: &fakeProducts{list: products},
		kv:       &fakeKV{m: map[string]string{}},
		rec:      &recorder{failOn: map[int64]bool{}},
		hist:     &history{},
		at:       now,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.checker = NewChecker(f.products, f.kv, gate(granted), f.rec, logger)
	f.checker.History = f.hist
	f.checker.Now = func() time.Time { return f.at }
	return f
}

func (f *fixture) state(t *testing.T) *State {
	t.Helper()
	s, err := ParseState(f.kv.m[StateKey])
	require.NoError(t, err)
	return s
}

func TestCheckAndNotify_SendsAndPersists(t *testing.T) {
	f := newFixture(true,
		product(1, "Toner", now.AddDate(0, 0, -1)),
		product(2, "Gel", now.AddDate(0, 0, 3)),
		product(3, "Perfume", now.AddDate(1, 0, 0)),
	)
	f.checker.ClickURL = "http://localhost:8080/products"

	r := f.checker.CheckAndNotify(context.Background())

	require.NoError(t, r.Err)
	assert.NotEmpty(t, r.PassID)
	assert.Equal(t, 3, r.Products)
	require.Len(t, f.rec.sent, 2)
	assert.Equal(t, "product-1", f.rec.sent[0].Tag)
	assert.True(t, f.rec.sent[0].RequireInteraction)
	assert.Equal(t, "http://localhost:8080/products", f.rec.sent[1].URL)
	assert.Len(t, r.Sent, 2)

	assert.Equal(t, []Entry{{1, now}, {2, now}}, f.state(t).Entries())

	require.Len(t, f.hist.records, 2)
	assert.Equal(t, model.AlertExpired, f.hist.records[0].Kind)
	assert.Equal(t, model.AlertExpiringSoon, f.hist.records[1].Kind)
}

func TestCheckAndNotify_PermissionNotGranted(t *testing.T) {
	f := newFixture(false, product(1, "Toner", now.AddDate(0, 0, -1)))

	r := f.checker.CheckAndNotify(context.Background())

	assert.Equal(t, SkippedPermission, r.Skipped)
	assert.Empty(t, f.rec.sent)
	assert.Equal(t, 0, f.kv.setCalls, "a skipped pass writes nothing")
}

func TestCheckAndNotify_SecondPassIsQuiet(t *testing.T) {
	f := newFixture(true, product(1, "Toner", now.AddDate(0, 0, -1)))
	ctx := context.Background()

	f.checker.CheckAndNotify(ctx)
	f.checker.CheckAndNotify(ctx)
	assert.Len(t, f.rec.sent, 1)

	f.at = now.Add(23 * time.Hour)
	f.checker.CheckAndNotify(ctx)
	assert.Len(t, f.rec.sent, 1)

	f.at = now.Add(25 * time.Hour)
	f.checker.CheckAndNotify(ctx)
	assert.Len(t, f.rec.sent, 2)
}

func TestCheckAndNotify_PrunesDeletedProducts(t *testing.T) {
	f := newFixture(true, product(2, "Perfume", now.AddDate(1, 0, 0)))
	f.kv.m[StateKey] = `[{"productId":1,"lastNotified":"2024-12-31T09:00:00Z"}]`

	r := f.checker.CheckAndNotify(context.Background())

	require.NoError(t, r.Err)
	assert.Empty(t, f.rec.sent)
	assert.Equal(t, []int64{1}, r.Pruned)
	assert.Equal(t, 0, f.state(t).Len())
}

func TestCheckAndNotify_StorageFailures(t *testing.T) {
	t.Run("products", func(t *testing.T) {
		f := newFixture(true)
		f.products.err = errors.New("db locked")
		r := f.checker.CheckAndNotify(context.Background())
		assert.Error(t, r.Err)
		assert.Equal(t, "db locked", r.Error)
		assert.Equal(t, 0, f.kv.setCalls)
	})

	t.Run("state read", func(t *testing.T) {
		f := newFixture(true, product(1, "Toner", now.AddDate(0, 0, -1)))
		f.kv.getErr = errors.New("kv read")
		r := f.checker.CheckAndNotify(context.Background())
		assert.Error(t, r.Err)
		assert.Empty(t, f.rec.sent, "nothing is sent without a state snapshot")
	})

	t.Run("state write", func(t *testing.T) {
		f := newFixture(true, product(1, "Toner", now.AddDate(0, 0, -1)))
		f.kv.setErr = errors.New("kv write")
		r := f.checker.CheckAndNotify(context.Background())
		assert.Error(t, r.Err)
		assert.Len(t, f.rec.sent, 1)
	})

	t.Run("corrupt state", func(t *testing.T) {
		f := newFixture(true, product(1, "Toner", now.AddDate(0, 0, -1)))
		f.kv.m[StateKey] = "garbage"
		r := f.checker.CheckAndNotify(context.Background())
		assert.NoError(t, r.Err)
		assert.Len(t, f.rec.sent, 1)
		assert.Equal(t, 1, f.state(t).Len())
	})
}

func TestCheckAndNotify_DispatchFailureIsRetried(t *testing.T) {
	earlier := now.Add(-48 * time.Hour)
	f := newFixture(true,
		product(1, "Toner", now.AddDate(0, 0, -1)),
		product(2, "Gel", now.AddDate(0, 0, 2)),
		product(3, "Soap", now.AddDate(0, 0, 1)),
	)
	f.kv.m[StateKey] = `[{"productId":2,"lastNotified":"` + earlier.Format(time.RFC3339) + `"}]`
	f.rec.failOn[1] = true
	f.rec.failOn[2] = true

	r := f.checker.CheckAndNotify(context.Background())

	require.NoError(t, r.Err)
	assert.Equal(t, 2, r.Failed)
	require.Len(t, f.rec.sent, 1)
	assert.Equal(t, int64(3), f.rec.sent[0].ProductID)

	st := f.state(t)
	_, ok := st.Get(1)
	assert.False(t, ok, "failed first alert leaves no entry")
	got, _ := st.Get(2)
	assert.True(t, got.Equal(earlier), "failed repeat alert keeps its previous time")
	got, _ = st.Get(3)
	assert.True(t, got.Equal(now))
	assert.Len(t, f.hist.records, 1)
}
