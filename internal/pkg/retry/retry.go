// Package retry wraps storage operations with bounded exponential
// backoff for transient contention errors.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// ErrRetriesExhausted is returned when an operation kept hitting
// transient contention until the retry ceiling. Callers should surface
// it to the user as "try again", not as a hard failure.
var ErrRetriesExhausted = errors.New("storage contention: retries exhausted")

// Transient PostgreSQL error codes worth retrying.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Policy holds retry tuning. The zero value is not usable; use
// DefaultPolicy or construct explicitly.
type Policy struct {
	InitialInterval time.Duration
	MaxRetries      uint64
}

// DefaultPolicy returns the standard policy: 100ms initial interval,
// doubling, 5 attempts total.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 100 * time.Millisecond,
		MaxRetries:      4,
	}
}

// IsTransient reports whether err is a contention error that a retry
// may resolve.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// Do runs op, retrying transient contention errors with exponential
// backoff. Non-transient errors are returned immediately. When the
// retry ceiling is hit, the last error is wrapped in
// ErrRetriesExhausted.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.RandomizationFactor = 0.2
	bo.Multiplier = 2

	var attempt int
	err := backoff.Retry(func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("Transient storage error, retrying")
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, p.MaxRetries), ctx))

	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return errors.Join(ErrRetriesExhausted, err)
	}
	return err
}

// Do runs op with the default policy.
func Do(ctx context.Context, op func(ctx context.Context) error) error {
	return DefaultPolicy().Do(ctx, op)
}
