package replay

import (
	"context"
	"time"
)

// withRetry runs fn until it succeeds, ctx is done, or maxRetries retries
// have failed. A negative maxRetries retries forever.
func withRetry(ctx context.Context, maxRetries int, baseDelay, maxDelay time.Duration, fn func(context.Context) error) error {
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if maxRetries >= 0 && attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
