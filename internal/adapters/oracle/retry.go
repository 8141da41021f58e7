package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/linotype/pkg/metrics"
)

// Default retry configuration constants.
const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultMaxDelay    = 8 * time.Second
	defaultCallTimeout = 90 * time.Second
)

// Policy bounds retries of oracle calls. Delays grow exponentially from
// BaseDelay and are capped at MaxDelay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	CallTimeout time.Duration
}

// DefaultPolicy returns the retry policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		CallTimeout: defaultCallTimeout,
	}
}

// Delay returns the backoff before the given zero-based retry attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Do runs fn under the policy: per-call timeout, exponential backoff on
// retryable errors, escalation to a fatal error once MaxAttempts is
// exhausted. Context cancellation stops the loop immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) (Response, error)) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordOracleRetry()
			select {
			case <-ctx.Done():
				return Response{}, Fatal(ctx.Err())
			case <-time.After(p.Delay(attempt - 1)):
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		start := time.Now()
		resp, err := fn(callCtx)
		if cancel != nil {
			cancel()
		}
		metrics.RecordOracleLatency(float64(time.Since(start).Milliseconds()))

		if err == nil {
			return resp, nil
		}

		// A timeout on the call itself counts as transient.
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = Transient(callCtx.Err())
		}

		kind := KindOf(err)
		metrics.RecordOracleError(string(kind))
		if kind == KindFatal {
			return Response{}, err
		}
		lastErr = err
	}
	return Response{}, Fatal(fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxAttempts, lastErr))
}

// Generate runs one oracle call under the policy.
func (p Policy) Generate(ctx context.Context, o Oracle, req Request) (Response, error) {
	return p.Do(ctx, func(ctx context.Context) (Response, error) {
		return o.Generate(ctx, req)
	})
}
