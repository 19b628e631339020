package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store keeps sliding-window hit counters. Record adds a hit for key and returns
// the number of hits within the last window, including this one.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (int64, error)
}

// LimitExceeded describes the limit a request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

func (e *LimitExceeded) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("rate limit exceeded: %d/%d requests in %s", e.Count, e.Config.Max, e.Config.Window)
	}

	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// PolicyLimiter enforces a Policy against a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records a hit for clientKey in every scope and reports the first limit exceeded,
// or nil when the request is within all limits.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			exceeded, err := l.record(ctx, key, limit)
			if err != nil {
				return nil, err
			}

			if exceeded != nil {
				exceeded.Scope = scope

				return exceeded, nil
			}
		}
	}

	return nil, nil
}

// AllowRoute applies endpoint specific limits instead of the policy. Counters are
// shared by every request matching the route template, per client.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context,
	clientKey, route string,
	limits []LimitConfig,
) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", clientKey, route, limit.Window.Milliseconds())

		exceeded, err := l.record(ctx, key, limit)
		if err != nil {
			return nil, err
		}

		if exceeded != nil {
			return exceeded, nil
		}
	}

	return nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, key string, limit LimitConfig) (*LimitExceeded, error) {
	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, fmt.Errorf("recording rate limit hit: %w", err)
	}

	if count > limit.Max {
		return &LimitExceeded{Config: limit, Count: count}, nil
	}

	return nil, nil
}
