// Package retry runs a fallible operation with bounded attempts and
// exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Policy bounds a retry loop.
type Policy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultPolicy returns three attempts starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}
}

// Validate rejects policies that cannot make progress.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.BackoffMultiplier <= 1 {
		return fmt.Errorf("retry: backoff multiplier must be > 1, got %g", p.BackoffMultiplier)
	}
	return nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	sleep   SleepFunc
	logger  *zap.Logger
	stopOn  func(error) bool
	onRetry func(attempt int, err error, delay time.Duration)
}

// Option customizes a Do call.
type Option func(*options)

// WithSleep replaces the timer used between attempts.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) { o.sleep = fn }
}

// WithLogger logs each failed attempt at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStopOn ends the loop at the first error for which fn returns true.
// That error is returned unchanged. Classification belongs to the caller.
func WithStopOn(fn func(error) bool) Option {
	return func(o *options) { o.stopOn = fn }
}

// WithOnRetry is called before each wait with the attempt that just failed.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do calls op until it succeeds or p.MaxAttempts attempts have failed.
// The first attempt runs immediately. After a failure Do waits the current
// delay and then grows it by BackoffMultiplier, capped at MaxDelay, for the
// following wait. When attempts run out the last error is returned as-is.
// A cancelled ctx during a wait returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{sleep: sleepCtx, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := p.InitialDelay
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				o.logger.Debug("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		if attempt >= maxAttempts || (o.stopOn != nil && o.stopOn(err)) {
			o.logger.Debug("retry giving up",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err))
			var zero T
			return zero, err
		}

		o.logger.Debug("attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
		if o.onRetry != nil {
			o.onRetry(attempt, err, delay)
		}

		if serr := o.sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}

		delay = next(delay, p)
	}
}

// next grows d for the wait after the one just taken.
func next(d time.Duration, p Policy) time.Duration {
	grown := time.Duration(float64(d) * p.BackoffMultiplier)
	if p.MaxDelay > 0 && grown > p.MaxDelay {
		return p.MaxDelay
	}
	return grown
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
