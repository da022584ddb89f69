// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

/*
Package users implements the account and session core of Clipstream.

It owns the User entity, the credential store contract, the token service
(issuance, verification, rotation), and the session flows built on top of
them (register, login, logout, refresh, password change, profile updates).

# Architecture

  - Entity: User is the single persistent record. The currently trusted
    refresh token lives on the row itself — one valid value at a time.
  - TokenService: The only component with state-transition semantics.
  - Service: Thin orchestration over the store, token service, and uploader.

This layer is the "Truth" of the system: the invariant that a non-empty
stored refresh token means "logged in" is enforced here and nowhere else.
*/
package users

import "time"

// # Domain Entities

// User represents a registered Clipstream member.
//
// PasswordHash and RefreshToken are explicitly omitted from JSON: no response
// payload may ever carry either, regardless of which flow serializes the user.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TokenPair is the ephemeral result of a successful issuance or rotation.
// Only the refresh half is persisted, on the User row.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session represents a successfully established login: the issued pair plus
// the sanitized user profile for the response body.
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// # Field Identifiers

// Field names used for validation details and JSON payload keys.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldFullName    = "fullName"
	FieldPassword    = "password"
	FieldOldPassword = "oldPassword"
	FieldNewPassword = "newPassword"
	FieldAvatar      = "avatar"
	FieldCoverImage  = "coverImage"
	FieldFile        = "file"
)
