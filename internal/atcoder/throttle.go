package atcoder

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a fixed minimum delay between consecutive calls to one
// external source.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle returns a Throttle allowing one call per interval. A zero
// interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
