package conversation

import (
	"context"
	"time"
)

// DefaultPollInterval is the delay between two history polls.
const DefaultPollInterval = 3 * time.Second

// Poller runs a tick function at a fixed interval until stopped. Ticks run
// sequentially on the poller goroutine, so a slow tick delays the next one
// instead of overlapping it.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPoller schedules tick every interval. The first tick fires one
// interval after the call.
func StartPoller(ctx context.Context, interval time.Duration, tick func(context.Context)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Stop may race with the ticker; prefer the cancellation.
				if ctx.Err() != nil {
					return
				}
				tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return p
}

// Stop prevents future ticks. A tick already running is not interrupted.
// Safe to call on a nil Poller and more than once.
func (p *Poller) Stop() {
	if p == nil {
		return
	}
	p.cancel()
}

// Done is closed once the poller goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
