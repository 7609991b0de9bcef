package textgen

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
)

// TransientError marks a failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err looks like a temporarily unavailable service.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, models.ErrOffline) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "503") || strings.Contains(msg, "UNAVAILABLE")
}

// Retrier runs an operation up to Attempts times, waiting Initial, then twice
// that, and so on between attempts. Only transient failures are retried.
type Retrier struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration

	timer  backoff.Timer
	logger *zap.Logger
}

func NewRetrier(logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{Attempts: 3, Initial: time.Second, Max: 8 * time.Second, logger: logger}
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.Initial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         r.Max,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	retries := r.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do returns the first successful result, or the last error.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	var out string
	attempt := 0
	err := backoff.RetryNotifyWithTimer(func() error {
		attempt++
		text, err := op(ctx)
		if err == nil {
			out = text
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, r.policy(ctx), func(err error, wait time.Duration) {
		r.logger.Debug("text generation unavailable, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}, r.timer)
	return out, err
}
