package alert

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Console writes one line per notification, typically to stderr.
type Console struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewConsole returns a dispatcher that writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

func (c *Console) Dispatch(_ context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s %s", c.now().Format("2006-01-02 15:04"), n.Tag, n.Title, n.Body)
	if n.RequireInteraction {
		line += " [action required]"
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}
