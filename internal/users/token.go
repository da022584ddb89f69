// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/sec"
)

// TokenService issues, verifies, and rotates the JWT pair for an account.
//
// # Trusted value
//
// The account row holds exactly one trusted refresh token at a time. Issuing
// overwrites it, refreshing rotates it, and revoking clears it, so presenting
// any earlier refresh token fails even when its signature is still valid.
type TokenService struct {
	users UserRepository
	codec *sec.TokenCodec
}

// NewTokenService creates a new TokenService.
func NewTokenService(users UserRepository, codec *sec.TokenCodec) *TokenService {
	return &TokenService{
		users: users,
		codec: codec,
	}
}

/*
Issue mints a fresh access/refresh token pair for a user and persists the
refresh token as the account's trusted value.

Description: Both tokens are signed before anything is written, so a signing
failure never leaves a half-updated account row.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *TokenPair: Signed access and refresh tokens
  - error: apperr 500 when lookup, signing, or persistence fails
*/
func (service *TokenService) Issue(context context.Context, userID string) (*TokenPair, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	accessToken, err := service.codec.SignAccessToken(user.ID, user.Username, user.Email, user.FullName, AccessTokenTTL)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	refreshToken, err := service.codec.SignRefreshToken(user.ID, RefreshTokenTTL)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	if err := service.users.SetRefreshToken(context, user.ID, refreshToken); err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

/*
VerifyAccess validates an access token and confirms its subject still exists.

Description: The cryptographic check alone would accept tokens for deleted
accounts until expiry, so every verification re-reads the account row.

Parameters:
  - context: context.Context
  - token: string (Raw JWT string)

Returns:
  - *sec.AccessClaims: Identity claims on success
  - error: apperr 401 for any invalid, expired, or orphaned token
*/
func (service *TokenService) VerifyAccess(context context.Context, token string) (*sec.AccessClaims, error) {
	claims, err := service.codec.VerifyAccessToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid access token")
	}

	if _, err := service.users.FindByID(context, claims.UserID); err != nil {
		return nil, apperr.Unauthorized("Invalid access token")
	}

	return claims, nil
}

/*
Refresh rotates a presented refresh token into a brand-new token pair.

Description: The presented token is first compared against the stored trusted
value to give replayed tokens their distinct rejection message, then the swap
itself runs as a compare-and-set so concurrent rotations of the same token
resolve to exactly one winner.

Parameters:
  - context: context.Context
  - presented: string (Raw refresh JWT from cookie or body)

Returns:
  - *TokenPair: Fresh access and refresh tokens
  - error: apperr 401 for absent, invalid, orphaned, or superseded tokens
*/
func (service *TokenService) Refresh(context context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := service.codec.VerifyRefreshToken(presented)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	user, err := service.users.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	if user.RefreshToken != presented {
		return nil, apperr.Unauthorized("Refresh token is expired or used")
	}

	accessToken, err := service.codec.SignAccessToken(user.ID, user.Username, user.Email, user.FullName, AccessTokenTTL)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	nextRefreshToken, err := service.codec.SignRefreshToken(user.ID, RefreshTokenTTL)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}

	swapped, err := service.users.RotateRefreshToken(context, user.ID, presented, nextRefreshToken)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while generating access and refresh tokens", err)
	}
	if !swapped {
		// A concurrent rotation or logout won the race between the read above
		// and the conditional write.
		return nil, apperr.Unauthorized("Refresh token is expired or used")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: nextRefreshToken,
	}, nil
}

/*
Revoke clears the account's trusted refresh token (logout).

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence errors
*/
func (service *TokenService) Revoke(context context.Context, userID string) error {
	return service.users.ClearRefreshToken(context, userID)
}
