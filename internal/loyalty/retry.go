package loyalty

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/freightlink/backend/internal/store"
)

// backoff returns the wait before retry attempt n (0-based): base * 2^n with ±20% jitter
func backoff(base time.Duration, attempt int) time.Duration {
	d := float64(base) * math.Pow(2, float64(attempt))
	jitter := d * 0.2
	d = d - jitter + rand.Float64()*jitter*2
	return time.Duration(d)
}

// retryRead runs an idempotent read up to attempts times. Not-found errors
// and context cancellation are returned immediately.
func retryRead[T any](ctx context.Context, attempts int, base time.Duration, read func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		value T
		err   error
	)
	for i := 0; i < attempts; i++ {
		value, err = read()
		if err == nil || errors.Is(err, store.ErrNotFound) {
			return value, err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return value, ctx.Err()
		case <-time.After(backoff(base, i)):
		}
	}
	return value, err
}
