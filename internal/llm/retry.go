package llm

import (
	"context"
	"time"
)

// RetryPolicy bounds how transient provider failures are retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; it doubles per
	// attempt up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns the retry policy used for conversational turns.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
	}
}

// RetryingClient wraps a Client with exponential-backoff retries for
// transient errors. Fatal errors and context cancellation surface immediately.
type RetryingClient struct {
	inner  Client
	policy RetryPolicy
	// sleep is replaceable in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetries wraps client with the given retry policy.
func WithRetries(client Client, policy RetryPolicy) *RetryingClient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingClient{
		inner:  client,
		policy: policy,
		sleep:  sleepCtx,
	}
}

// Generate calls the wrapped client, retrying transient failures up to the
// policy's attempt cap.
func (c *RetryingClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	backoff := c.policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		reply, err := c.inner.Generate(ctx, prompt, opts)
		if err == nil {
			return reply, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err

		if attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return "", err
		}
		backoff *= 2
		if c.policy.MaxBackoff > 0 && backoff > c.policy.MaxBackoff {
			backoff = c.policy.MaxBackoff
		}
	}

	return "", lastErr
}

// Close closes the wrapped client.
func (c *RetryingClient) Close() error {
	return c.inner.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
