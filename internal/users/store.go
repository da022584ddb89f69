// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Every write is a single-row, single-statement operation. The refresh-token
// methods are the serialization point for the rotation invariant: rotation
// uses a compare-and-swap so that two racing rotations of the same stale
// token can never both succeed.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByLogin returns the account whose username OR email equals login.

		Parameters:
		  - context: context.Context
		  - login: string (Normalized username or email)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByLogin(context context.Context, login string) (*User, error)

	/*
		ExistsByIdentity reports whether any account already claims the
		username or the email.

		Parameters:
		  - context: context.Context
		  - username: string
		  - email: string

		Returns:
		  - bool: true if either identifier is taken
		  - error: Database retrieval failures
	*/
	ExistsByIdentity(context context.Context, username, email string) (bool, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures (unique violations surface as apperr.Conflict)
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateAccountDetails replaces the full name and email on the account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - fullName: string
		  - email: string

		Returns:
		  - *User: The updated entity
		  - error: Persistence failures
	*/
	UpdateAccountDetails(context context.Context, userID, fullName, email string) (*User, error)

	/*
		UpdateAvatarURL replaces only the avatar URL on the account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - url: string

		Returns:
		  - *User: The updated entity
		  - error: Persistence failures
	*/
	UpdateAvatarURL(context context.Context, userID, url string) (*User, error)

	/*
		UpdateCoverImageURL replaces only the cover image URL on the account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - url: string

		Returns:
		  - *User: The updated entity
		  - error: Persistence failures
	*/
	UpdateCoverImageURL(context context.Context, userID, url string) (*User, error)

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		SetRefreshToken overwrites the stored refresh token unconditionally.
		Used at issuance (login): no prior value is expected.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	SetRefreshToken(context context.Context, userID, token string) error

	/*
		RotateRefreshToken atomically replaces the stored refresh token with
		next, but only if the stored value still equals presented.

		This is the anti-replay compare-and-swap: of any number of concurrent
		rotations presenting the same token, at most one observes a match.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - presented: string (The token being consumed)
		  - next: string (The freshly minted replacement)

		Returns:
		  - bool: true if the swap was applied
		  - error: Persistence failures
	*/
	RotateRefreshToken(context context.Context, userID, presented, next string) (bool, error)

	/*
		ClearRefreshToken removes the stored refresh token unconditionally.
		After this, no refresh can succeed until the next login.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearRefreshToken(context context.Context, userID string) error
}

// # Volatile Data Access

// LoginThrottleRepository defines the contract for the failed-login counter.
//
// Counters are volatile and expire on their own; losing them only resets the
// throttle, never identity state.
type LoginThrottleRepository interface {

	/*
		RecordFailure increments the failed-attempt counter for the login
		identifier and returns the new count. The first failure in a window
		starts the TTL.

		Parameters:
		  - context: context.Context
		  - login: string
		  - window: time.Duration

		Returns:
		  - int64: Failures recorded in the current window
		  - error: Storage failures
	*/
	RecordFailure(context context.Context, login string, window time.Duration) (int64, error)

	/*
		Failures returns the current failed-attempt count for the identifier.

		Parameters:
		  - context: context.Context
		  - login: string

		Returns:
		  - int64: Current count (0 if no window is active)
		  - error: Storage failures
	*/
	Failures(context context.Context, login string) (int64, error)

	/*
		Reset clears the counter after a successful login.

		Parameters:
		  - context: context.Context
		  - login: string

		Returns:
		  - error: Storage failures
	*/
	Reset(context context.Context, login string) error
}
