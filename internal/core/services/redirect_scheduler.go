package services

import (
	"context"
	"time"
)

// RedirectScheduler runs the countdown shown before the client flow leaves
// the booking page.
type RedirectScheduler struct {
	ticks    int
	interval time.Duration
}

func NewRedirectScheduler(ticks int, interval time.Duration) *RedirectScheduler {
	return &RedirectScheduler{ticks: ticks, interval: interval}
}

func (s *RedirectScheduler) Ticks() int {
	return s.ticks
}

// Start calls onTick with the remaining tick count once per interval, ending
// with 0. Calling stop or cancelling ctx guarantees no further calls.
func (s *RedirectScheduler) Start(ctx context.Context, onTick func(remaining int)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for remaining := s.ticks; remaining > 0; {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				remaining--
				onTick(remaining)
			}
		}
	}()

	return cancel
}
