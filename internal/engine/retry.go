package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// maybeRetryCap bounds retries for RetryClassMaybe errors.
const maybeRetryCap = 2

// RetryPolicy defines retry behavior for a specific operation type.
type RetryPolicy struct {
	MaxRetries   int           // 0 = no retries
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration
	Multiplier   float64 // exponential backoff multiplier
	Jitter       bool    // add 0-20% random jitter
}

// RetryConfig holds the retry policy for collaborator calls.
type RetryConfig struct {
	LLMPolicy RetryPolicy
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn, retrying per policy while classifyError says
// the failure is transient. Non-retryable errors are returned unchanged;
// exhausted retries come back as *RetryExhaustedError.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classifyError func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		class := classifyError(err)
		if class == RetryClassNonRetryable {
			return zero, err
		}
		if attempt >= policy.MaxRetries {
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt + 1}
		}
		if class == RetryClassMaybe && attempt >= maybeRetryCap {
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt + 1, IsGuarded: true}
		}

		delay := calculateDelay(policy, attempt, err)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// calculateDelay computes the delay for a retry attempt. A Retry-After hint
// wins over exponential backoff; both are capped at MaxDelay.
func calculateDelay(policy RetryPolicy, attempt int, err error) time.Duration {
	if retryAfter := ExtractRetryAfter(err); retryAfter > 0 {
		return min(retryAfter, policy.MaxDelay)
	}

	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}

// ChatWithRetry wraps one collaborator call with the LLM retry policy.
func ChatWithRetry(
	ctx context.Context,
	llm LLMClient,
	model string,
	messages []ChatMessage,
	opts ChatOptions,
	onRetry func(attempt int, delay time.Duration, err error),
) (LLMResponse, error) {
	for i, m := range messages {
		if err := m.Validate(); err != nil {
			return LLMResponse{}, fmt.Errorf("message %d: %w", i, err)
		}
	}

	cfg := DefaultRetryConfig()
	if opts.RetryConfig != nil {
		cfg = *opts.RetryConfig
	}
	return RetryWithPolicy(
		ctx,
		cfg.LLMPolicy,
		func(ctx context.Context) (LLMResponse, error) {
			return llm.Chat(ctx, model, messages, opts)
		},
		ClassifyLLMError,
		onRetry,
	)
}
