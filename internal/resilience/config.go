package resilience

import (
	"context"
)

// Policy bundles the retry settings and breaker registry shared by the
// outbound HTTP clients.
type Policy struct {
	Retry    RetryConfig
	Breakers *ServiceBreakers
}

// NewPolicy builds a Policy from raw config values.
func NewPolicy(maxAttempts, initialBackoffMs, maxBackoffMs, failureThreshold, resetTimeoutSecs int) *Policy {
	return &Policy{
		Retry:    FromRetryConfig(maxAttempts, initialBackoffMs, maxBackoffMs),
		Breakers: NewServiceBreakers(FromCircuitConfig(failureThreshold, resetTimeoutSecs)),
	}
}

// Call runs fn for service with retries, wrapped by the service's breaker.
// The breaker sees one outcome per Call, after retries are exhausted. A nil
// policy calls fn once.
func Call[T any](ctx context.Context, p *Policy, service, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}

	retry := p.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = RetryLogger(service, operation)
	}

	attempt := func(ctx context.Context) (T, error) {
		return DoVal(ctx, retry, fn)
	}
	if p.Breakers == nil {
		return attempt(ctx)
	}
	return ExecuteVal(ctx, p.Breakers.Get(service), attempt)
}
