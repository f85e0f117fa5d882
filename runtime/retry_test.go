package runtime

import (
	"buddychat/errors"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry_Succeeds_After_Transient_Failures(t *testing.T) {
	req := require.New(t)
	policy := NewRetryPolicy(3, time.Millisecond, 2*time.Millisecond)
	calls := 0

	res, err := Retry(context.Background(), policy, slog.Default(), "test", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("%w: busy", errors.ErrStoreUnavailable)
		}
		return 42, nil
	})

	req.NoError(err)
	req.Equal(42, res)
	req.Equal(3, calls)
}

func TestRetry_Gives_Up_After_Attempts(t *testing.T) {
	req := require.New(t)
	policy := NewRetryPolicy(2, time.Millisecond, 2*time.Millisecond)
	calls := 0

	_, err := Retry(context.Background(), policy, slog.Default(), "test", func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, fmt.Errorf("%w: down", errors.ErrStoreUnavailable)
	})

	req.ErrorIs(err, errors.ErrStoreUnavailable)
	req.Equal(2, calls)
}

func TestRetry_Does_Not_Retry_Permanent_Errors(t *testing.T) {
	req := require.New(t)
	calls := 0

	_, err := Retry(context.Background(), NewRetryPolicy(5, time.Millisecond, time.Millisecond), slog.Default(), "test",
		func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, errors.ErrNotFound
		})

	req.ErrorIs(err, errors.ErrNotFound)
	req.Equal(1, calls)
}

func TestRetry_Stops_On_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, NewRetryPolicy(5, time.Hour, time.Hour), slog.Default(), "test",
		func(context.Context) (struct{}, error) {
			return struct{}{}, errors.ErrStoreUnavailable
		})

	req.ErrorIs(err, context.Canceled)
}

func TestRetryPolicy_Delay_Is_Capped(t *testing.T) {
	req := require.New(t)
	policy := NewRetryPolicy(0, 10*time.Millisecond, 100*time.Millisecond)
	policy.Backoff.Jitter = 0

	req.Equal(10*time.Millisecond, policy.Delay(0))
	req.Equal(16*time.Millisecond, policy.Delay(1))
	req.Equal(100*time.Millisecond, policy.Delay(10))
}
