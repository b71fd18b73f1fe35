package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{
	MaxRetries:   3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

type scriptedLLM struct {
	errs  []error
	calls int
}

func (s *scriptedLLM) Chat(ctx context.Context, model string, messages []ChatMessage, opts ChatOptions) (LLMResponse, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return LLMResponse{}, err
		}
	}
	return LLMResponse{Assistant: AssistantMessage("ok")}, nil
}

func TestRetryWithPolicy_RecoversFromTransientErrors(t *testing.T) {
	llm := &scriptedLLM{errs: []error{errors.New("503 service unavailable"), errors.New("connection reset by peer")}}
	var retries []int

	resp, err := ChatWithRetry(context.Background(), llm, "m", nil,
		ChatOptions{RetryConfig: &RetryConfig{LLMPolicy: fastPolicy}},
		func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) })

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Assistant.Content)
	assert.Equal(t, 3, llm.calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryWithPolicy_NonRetryableReturnsImmediately(t *testing.T) {
	cause := errors.New("401 unauthorized")
	llm := &scriptedLLM{errs: []error{cause}}

	_, err := ChatWithRetry(context.Background(), llm, "m", nil,
		ChatOptions{RetryConfig: &RetryConfig{LLMPolicy: fastPolicy}}, nil)

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, llm.calls)
}

func TestRetryWithPolicy_Exhausted(t *testing.T) {
	calls := 0
	_, err := RetryWithPolicy(context.Background(), fastPolicy,
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("429 too many requests")
		},
		ClassifyLLMError, nil)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.False(t, exhausted.IsGuarded)
	assert.Equal(t, 4, calls)
}

func TestRetryWithPolicy_MaybeClassIsCapped(t *testing.T) {
	policy := fastPolicy
	policy.MaxRetries = 10
	calls := 0
	_, err := RetryWithPolicy(context.Background(), policy,
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("context deadline exceeded")
		},
		ClassifyLLMError, nil)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.True(t, exhausted.IsGuarded)
	assert.Equal(t, maybeRetryCap+1, calls)
}

func TestRetryWithPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy
	policy.InitialDelay = time.Hour
	policy.MaxDelay = time.Hour

	_, err := RetryWithPolicy(ctx, policy,
		func(context.Context) (int, error) { return 0, errors.New("502 bad gateway") },
		ClassifyLLMError,
		func(int, time.Duration, error) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	other := errors.New("x")

	assert.Equal(t, 100*time.Millisecond, calculateDelay(p, 0, other))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(p, 2, other))
	assert.Equal(t, time.Second, calculateDelay(p, 10, other))
	assert.Equal(t, time.Second, calculateDelay(p, 0, WrapLLMError(other, 429, "60")))
}

func TestChatWithRetry_RejectsUnknownRole(t *testing.T) {
	llm := &scriptedLLM{}

	_, err := ChatWithRetry(context.Background(), llm, "m",
		[]ChatMessage{UserMessage("hi"), {Role: "tool", Content: "x"}},
		ChatOptions{RetryConfig: &RetryConfig{LLMPolicy: fastPolicy}}, nil)

	assert.ErrorContains(t, err, "message 1: invalid message role: tool")
	assert.Zero(t, llm.calls)
}
