// Copyright (c) 2026 Trackwell Health. All rights reserved.
// Author: platform@trackwell.health

package auth

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/trackwell/trackwell/internal/platform/constants"
)

// RedisLoginLimiter implements LoginLimiter using Redis counters with TTL.
//
// # Semantics
//
// One counter per normalized email, incremented on every failed password
// attempt. The window TTL is set when the counter is created, so the budget
// resets LoginFailureWindow after the FIRST failure, not the last — a
// deliberately forgiving shape that still stops online guessing.
type RedisLoginLimiter struct {
	client *redis.Client
}

// NewLoginLimiter creates a new Redis-backed LoginLimiter.
func NewLoginLimiter(client *redis.Client) *RedisLoginLimiter {
	return &RedisLoginLimiter{client: client}
}

/*
TooManyFailures reports whether the email exceeded the failure budget.

Parameters:
  - context: context.Context
  - email: string (normalized)

Returns:
  - bool: true if the throttle should engage
  - error: Connectivity errors (callers fail open)
*/
func (limiter *RedisLoginLimiter) TooManyFailures(context context.Context, email string) (bool, error) {
	key := constants.RedisPrefixLoginFail + email

	count, err := limiter.client.Get(context, key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis_login_limiter_get_failed: %w", err)
	}

	return count >= MaxLoginFailures, nil
}

/*
RecordFailure increments the failure counter, starting the window on the
first failure.

Parameters:
  - context: context.Context
  - email: string (normalized)

Returns:
  - error: Connectivity errors (callers log and continue)
*/
func (limiter *RedisLoginLimiter) RecordFailure(context context.Context, email string) error {
	key := constants.RedisPrefixLoginFail + email

	count, err := limiter.client.Incr(context, key).Result()
	if err != nil {
		return fmt.Errorf("redis_login_limiter_incr_failed: %w", err)
	}

	// First failure opens the window.
	if count == 1 {
		if err := limiter.client.Expire(context, key, LoginFailureWindow).Err(); err != nil {
			return fmt.Errorf("redis_login_limiter_expire_failed: %w", err)
		}
	}

	return nil
}

/*
Clear removes the failure counter after a successful login.

Parameters:
  - context: context.Context
  - email: string (normalized)

Returns:
  - error: Connectivity errors (callers log and continue)
*/
func (limiter *RedisLoginLimiter) Clear(context context.Context, email string) error {
	key := constants.RedisPrefixLoginFail + email

	if err := limiter.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_login_limiter_clear_failed: %w", err)
	}

	return nil
}
