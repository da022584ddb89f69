// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/constants"
)

// RedisLoginThrottle implements the LoginThrottleRepository interface using Redis.
//
// # Key Layout
//
// One counter per login identifier under constants.RedisPrefixLoginAttempts,
// expiring after the throttle window. The counter only ever grows within a
// window; a successful login deletes it outright.
type RedisLoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a new Redis implementation of the LoginThrottleRepository.
func NewLoginThrottle(client *redis.Client) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client}
}

/*
RecordFailure increments the failure counter for a login identifier.

Description: The expiry is attached only when the increment created the key,
so the window is anchored to the first failure rather than sliding with each
subsequent one.

Parameters:
  - context: context.Context
  - login: string (Normalized identifier)
  - window: time.Duration

Returns:
  - int64: Failure count within the current window, including this one
  - error: Redis connectivity errors
*/
func (throttle *RedisLoginThrottle) RecordFailure(context context.Context, login string, window time.Duration) (int64, error) {
	key := throttle.key(login)

	count, err := throttle.client.Incr(context, key).Result()
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("incrementing login failures: %w", err))
	}

	if count == 1 {
		if err := throttle.client.Expire(context, key, window).Err(); err != nil {
			return count, apperr.Internal(fmt.Errorf("setting login failure expiry: %w", err))
		}
	}

	return count, nil
}

/*
Failures returns the current failure count for a login identifier.

Parameters:
  - context: context.Context
  - login: string (Normalized identifier)

Returns:
  - int64: Failure count, 0 when no window is active
  - error: Redis connectivity errors
*/
func (throttle *RedisLoginThrottle) Failures(context context.Context, login string) (int64, error) {
	count, err := throttle.client.Get(context, throttle.key(login)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("reading login failures: %w", err))
	}

	return count, nil
}

/*
Reset clears the failure counter after a successful login.

Parameters:
  - context: context.Context
  - login: string (Normalized identifier)

Returns:
  - error: Redis connectivity errors
*/
func (throttle *RedisLoginThrottle) Reset(context context.Context, login string) error {
	if err := throttle.client.Del(context, throttle.key(login)).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("clearing login failures: %w", err))
	}

	return nil
}

func (throttle *RedisLoginThrottle) key(login string) string {
	return constants.RedisPrefixLoginAttempts + login
}
