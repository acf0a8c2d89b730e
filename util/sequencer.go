package util

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Sequencer spaces calls made through it at least interval apart. It is safe
// for concurrent use; concurrent callers queue on the limiter.
type Sequencer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

func NewSequencer(interval time.Duration) *Sequencer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Sequencer{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (s *Sequencer) Interval() time.Duration {
	return s.interval
}

// Do waits for the next free slot and runs fn. It returns ctx.Err() without
// calling fn if the context ends first, and an error wrapping
// context.DeadlineExceeded if the next slot lies past the deadline.
func (s *Sequencer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return fn(ctx)
}
