// Package poller drives any remote "not-ready -> ready|error" async job to
// completion with bounded retries.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/udderrors"
	"github.com/sethvargo/go-retry"
)

// Op is an idempotent remote operation. It must return udderrors.ErrNotReady
// (wrapped or bare) to signal "not ready yet, try again"; any other
// non-nil error is propagated to the caller immediately.
type Op[T any] func(ctx context.Context) (T, error)

// TablePoller drives an Op[T] to completion, sleeping `Interval` before
// every try (including the first — intentional even though it wastes one
// Interval when the job is already done by the time Poll is called) for
// up to `MaxTries` iterations.
//
// Interval <= 0 means "poll as fast as possible" (test mode).
type TablePoller struct {
	Interval time.Duration
	MaxTries int
	Logger   logging.Logger
}

// New builds a TablePoller from the given interval and max-tries.
func New(interval time.Duration, maxTries int, logger logging.Logger) *TablePoller {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &TablePoller{Interval: interval, MaxTries: maxTries, Logger: logger}
}

// Poll drives op to completion. On success it returns op's value. If op
// signals NotReady on every one of MaxTries tries, Poll fails with
// udderrors.ErrTimeout. Any other error from op is propagated immediately,
// without consuming further tries.
//
// The per-try sleep duration is produced by a sethvargo/go-retry constant
// Backoff — used here purely as the sleep-duration generator, not as the
// retry driver, because go-retry's own Do loop sleeps *between* attempts
// rather than *before every* attempt, which does not match the ordering
// this poller needs.
func Poll[T any](ctx context.Context, p *TablePoller, op Op[T]) (T, error) {
	var zero T

	var backoff retry.Backoff = constantZero{}
	if p.Interval > 0 {
		backoff = retry.NewConstant(p.Interval)
	}

	for attempt := 0; attempt < p.MaxTries; attempt++ {
		sleep, _ := backoff.Next()
		if sleep > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(sleep):
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, udderrors.ErrNotReady) {
			p.Logger.Debug(ctx, "poll not ready, retrying", "attempt", attempt+1, "max_tries", p.MaxTries)
			continue
		}

		return zero, err
	}

	return zero, udderrors.ErrTimeout
}

// constantZero is a Backoff that always returns a zero sleep duration,
// for "poll as fast as possible" test mode (Interval <= 0).
type constantZero struct{}

func (constantZero) Next() (time.Duration, bool) { return 0, false }
