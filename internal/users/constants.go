// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import "time"

// # Token Lifetimes

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (15m) to minimize the impact of a leaked token:
	// access tokens are never checked against stored state, so expiry is
	// their only revocation mechanism.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (10 days); each successful rotation extends the session
	// by this much, giving a sliding window.
	RefreshTokenTTL = 10 * 24 * time.Hour
)

// # Login Throttling

const (
	// MaxLoginAttempts is the number of failed password checks allowed per
	// login identifier before the account is temporarily locked out.
	MaxLoginAttempts = 10

	// LoginAttemptWindow is the TTL of the failed-attempt counter. The
	// lockout clears when the counter expires or on a successful login.
	LoginAttemptWindow = 15 * time.Minute
)
