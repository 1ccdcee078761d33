package notify

import (
	"context"
	"time"
)

// DefaultInterval is the time between scheduled passes.
const DefaultInterval = 6 * time.Hour

// Loop runs a pass immediately and then on every tick until stopped.
// Start a new Loop only after stopping the previous one.
type Loop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start begins the loop. interval <= 0 uses DefaultInterval. Passes run
// on a context that ignores cancellation, so Stop and ctx cancellation
// only prevent later passes.
func Start(ctx context.Context, interval time.Duration, pass func(context.Context)) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Loop{cancel: cancel, done: make(chan struct{})}
	go l.run(ctx, interval, pass)
	return l
}

func (l *Loop) run(ctx context.Context, interval time.Duration, pass func(context.Context)) {
	defer close(l.done)
	passCtx := context.WithoutCancel(ctx)

	pass(passCtx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			pass(passCtx)
		}
	}
}

// Stop prevents further passes. It does not wait for a pass in flight.
func (l *Loop) Stop() {
	l.cancel()
}

// Wait blocks until the loop has exited.
func (l *Loop) Wait() {
	<-l.done
}
