package hestia

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying wraps an Invoker with bounded exponential backoff and a
// per-call deadline. Only transport failures are retried; an
// application failure from the panel is returned immediately, since
// resending a rejected command cannot change the answer.
type Retrying struct {
	inner       Invoker
	maxRetries  uint64
	baseBackoff time.Duration
	perCall     time.Duration
}

// WithRetry decorates inner. maxRetries counts retries after the first
// attempt; perCall bounds each individual attempt.
func WithRetry(inner Invoker, maxRetries int, baseBackoff, perCall time.Duration) *Retrying {
	if baseBackoff <= 0 {
		baseBackoff = 500 * time.Millisecond
	}
	if perCall <= 0 {
		perCall = 30 * time.Second
	}
	return &Retrying{
		inner:       inner,
		maxRetries:  uint64(maxRetries),
		baseBackoff: baseBackoff,
		perCall:     perCall,
	}
}

func (r *Retrying) Invoke(ctx context.Context, cmd Command, format Format) (*Result, error) {
	var result *Result

	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.perCall)
		defer cancel()

		res, err := r.inner.Invoke(callCtx, cmd, format)
		if err != nil {
			if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) {
				return retry.RetryableError(err)
			}
			result = res
			return err
		}
		result = res
		return nil
	})
	return result, err
}
