package alert

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti_DispatchesToAllAndJoinsErrors(t *testing.T) {
	var got []string
	ok := Func(func(_ context.Context, n Notification) error {
		got = append(got, "ok:"+n.Tag)
		return nil
	})
	boom := errors.New("boom")
	bad := Func(func(_ context.Context, n Notification) error {
		got = append(got, "bad:"+n.Tag)
		return boom
	})

	err := Multi{bad, ok}.Dispatch(context.Background(), Notification{Tag: "product-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"bad:product-1", "ok:product-1"}, got)

	assert.NoError(t, Multi{ok}.Dispatch(context.Background(), Notification{}))
}

func TestConsole_Dispatch(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, c.Dispatch(context.Background(), Notification{
		Title: "🔴 Product Expired!", Body: "Toner has expired on 31.12.2024",
		Tag: "product-3", RequireInteraction: true,
	}))
	require.NoError(t, c.Dispatch(context.Background(), Notification{
		Title: "⚠️ Product Expiring Soon!", Body: "Gel will expire on 05.01.2025", Tag: "product-4",
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2025-01-01 09:30 [product-3] 🔴 Product Expired! Toner has expired on 31.12.2024 [action required]", lines[0])
	assert.NotContains(t, lines[1], "action required")
}
