package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{InitialInterval: time.Millisecond, MaxRetries: 3}
}

func serializationErr() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "55P03"}))

	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("plain error")))
	assert.False(t, IsTransient(nil))

	// Wrapped transient errors still count.
	wrapped := errors.Join(errors.New("outer"), serializationErr())
	assert.True(t, IsTransient(wrapped))
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return serializationErr()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NonTransientFailsImmediately(t *testing.T) {
	sentinel := errors.New("business rule violated")
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
}

func TestDo_ExhaustionWrapsSentinel(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return serializationErr()
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 4, calls, "initial attempt plus MaxRetries")

	// The underlying pg error stays inspectable.
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestDo_ContextCancellationStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy().Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return serializationErr()
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}
