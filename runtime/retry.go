package runtime

import (
	"buddychat/errors"
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"google.golang.org/grpc/backoff"
)

// RetryPolicy bounds local retries of transient storage failures.
type RetryPolicy struct {
	Attempts int
	Backoff  backoff.Config
}

func NewRetryPolicy(attempts int, base, maxDelay time.Duration) RetryPolicy {
	cfg := backoff.DefaultConfig
	cfg.BaseDelay = base
	cfg.MaxDelay = maxDelay
	return RetryPolicy{Attempts: attempts, Backoff: cfg}
}

// Delay is the wait before retry number `retries` (0 based), jittered and capped.
func (p RetryPolicy) Delay(retries int) time.Duration {
	cfg := p.Backoff
	if retries <= 0 {
		return jitter(cfg.BaseDelay, cfg.Jitter)
	}
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(retries))
	if ceiling := float64(cfg.MaxDelay); delay > ceiling {
		delay = ceiling
	}
	return jitter(time.Duration(delay), cfg.Jitter)
}

func jitter(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}
	delta := factor * float64(d)
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}

// Retry runs fn until it succeeds, fails with a non retryable error, runs out of
// attempts or ctx is done. The last error is returned untouched.
func Retry[T any](ctx context.Context, policy RetryPolicy, log *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(policy.Attempts, 1)
	var (
		result T
		err    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil || !errors.IsRetryable(err) {
			return result, err
		}
		if attempt == attempts-1 {
			break
		}
		delay := policy.Delay(attempt)
		log.Debug("Retrying after transient failure", "op", op, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}
	return result, err
}
