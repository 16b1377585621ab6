package location

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"
)

// RetryConfig controls how Retry repeats failed operations.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter adds up to ±10% to each backoff.
	Jitter bool
	// Retryable reports whether err is worth another attempt.
	Retryable func(err error) bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
		Retryable:         DefaultRetryable,
	}
}

// DefaultRetryable retries everything except a missing snapshot, an invalid
// location and context cancellation, none of which go away on their own.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrInvalid) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Retry repeats failed loads and saves of a remote location with
// exponential backoff.
type Retry struct {
	Location
	config RetryConfig
}

var _ Location = (*Retry)(nil)

func NewRetry(loc Location, config RetryConfig) *Retry {
	if config.Retryable == nil {
		config.Retryable = DefaultRetryable
	}
	return &Retry{Location: loc, config: config}
}

func (r *Retry) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.do(ctx, func() error {
		var err error
		data, err = r.Location.Load(ctx)
		return err
	})
	return data, err
}

func (r *Retry) Save(ctx context.Context, data []byte) error {
	return r.do(ctx, func() error {
		return r.Location.Save(ctx, data)
	})
}

func (r *Retry) do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil || attempt >= r.config.MaxRetries || !r.config.Retryable(err) {
			return err
		}
		timer := time.NewTimer(calculateBackoff(attempt, r.config))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(err, "giving up after %d attempts: %v", attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff)
	for range attempt {
		backoff *= config.BackoffMultiplier
	}
	if ceiling := float64(config.MaxBackoff); config.MaxBackoff > 0 && backoff > ceiling {
		backoff = ceiling
	}
	if config.Jitter {
		backoff += backoff * 0.1 * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}
