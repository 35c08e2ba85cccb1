// Package retry wraps upstream provider calls in a bounded exponential
// backoff. Only temporary upstream failures are retried.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/heartmarshall/songsmith-backend/internal/domain"
)

// Policy bounds the retries of one upstream call.
// The zero Policy performs exactly one attempt.
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewPolicy returns a Policy with the default intervals.
func NewPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries:      maxRetries,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     4 * time.Second,
	}
}

// Do runs op until it succeeds, fails permanently, ctx is done, or the
// retry budget is spent. An error is retried only when it is a temporary
// *domain.UpstreamError.
func Do[T any](ctx context.Context, p Policy, log *slog.Logger, op func() (T, error)) (T, error) {
	if p.MaxRetries <= 0 {
		return op()
	}

	attempt := 0
	wrapped := func() (T, error) {
		attempt++
		res, err := op()
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, wait time.Duration) {
		if log == nil {
			return
		}
		log.WarnContext(ctx, "upstream retry",
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	return backoff.RetryNotifyWithData(wrapped, newBackOff(ctx, p), notify)
}

// Retryable reports whether err is a temporary upstream failure.
func Retryable(err error) bool {
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) {
		return false
	}
	return upErr.Temporary()
}

func newBackOff(ctx context.Context, p Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxRetries)), ctx)
}
