package replay

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces replay steps for presentation. It never affects what is merged.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NoPacing runs steps back to back.
type NoPacing struct{}

func (NoPacing) Wait(ctx context.Context) error {
	return ctx.Err()
}

// RatePacer lets at most one step through per interval.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer spacing steps by interval. A non-positive
// interval disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{limiter: rate.NewLimiter(limit, 1)}
}

func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
