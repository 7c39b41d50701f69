package graph

import (
	"context"
	"strings"
	"time"
)

// executeNodeWithRetry executes a node with retry logic based on the retry policy
func (r *StateRunnable[S]) executeNodeWithRetry(ctx context.Context, node TypedNode[S], state S) (S, error) {
	var zero S
	var lastErr error

	maxAttempts := 1
	policy := r.graph.retryPolicy
	if policy != nil {
		maxAttempts = policy.MaxRetries + 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := node.Function(ctx, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxAttempts-1 || !isRetryableError(policy, err) {
			break
		}

		select {
		case <-time.After(calculateBackoffDelay(policy, attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}

// isRetryableError checks if an error is retryable based on the retry policy
func isRetryableError(policy *RetryPolicy, err error) bool {
	if policy == nil {
		return false
	}
	if len(policy.RetryableErrors) == 0 {
		return true
	}

	msg := err.Error()
	for _, pattern := range policy.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// calculateBackoffDelay calculates the delay before retry number attempt+1
func calculateBackoffDelay(policy *RetryPolicy, attempt int) time.Duration {
	if policy == nil {
		return 0
	}

	baseDelay := policy.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	switch policy.BackoffStrategy {
	case ExponentialBackoff:
		// 1x, 2x, 4x, 8x, ...
		return baseDelay * time.Duration(1<<attempt)
	case LinearBackoff:
		// 1x, 2x, 3x, 4x, ...
		return baseDelay * time.Duration(attempt+1)
	default:
		return baseDelay
	}
}
