// Package retry wraps a fallible operation with bounded exponential-backoff
// retry. Each call is an independent retry session; the package keeps no
// state between invocations.
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Config controls one retry session.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// ShouldRetry decides whether the failure of the given attempt (1-based)
	// is worth another try. Nil means DefaultShouldRetry.
	ShouldRetry func(err error, attempt int) bool
	// Jitter is added on top of the computed delay, uniform in [0, Jitter).
	Jitter time.Duration
	// Sleep is swappable for tests. Nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig mirrors the gateway's standard policy: 3 attempts, 1s
// initial delay doubling up to 10s, with up to 1s of jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       time.Second,
	}
}

var transientMarkers = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network",
}

// DefaultShouldRetry treats an error as transient when its message contains
// one of the known transient-failure markers (case-insensitive).
func DefaultShouldRetry(err error, _ int) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds, the attempt cap is reached, or the failure
// is judged non-retryable. The last error is returned unwrapped so callers
// can inspect it; nothing is swallowed.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts || !shouldRetry(err, attempt) {
			return err
		}

		wait := delay
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if cfg.Jitter > 0 {
			wait += time.Duration(rand.Int63n(int64(cfg.Jitter)))
		}
		if serr := sleep(ctx, wait); serr != nil {
			return serr
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	return err
}
