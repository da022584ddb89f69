// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"

	"github.com/minhngo/clipstream/internal/media"
	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/sec"
	"github.com/minhngo/clipstream/internal/platform/validate"
	"github.com/minhngo/clipstream/pkg/normalize"
	"github.com/minhngo/clipstream/pkg/uuidv7"
)

// Service orchestrates the account flows by composing the credential store,
// the token service, and the media uploader.
//
// # Architecture
//
// Handlers translate HTTP into the input structs below; the service owns all
// business rules (normalization, hashing, throttling, token lifecycle) and
// returns either domain entities or [apperr.AppError] values.
type Service struct {
	users    UserRepository
	throttle LoginThrottleRepository
	tokens   *TokenService
	uploader media.Uploader
}

// NewService creates a new user Service.
func NewService(users UserRepository, throttle LoginThrottleRepository, tokens *TokenService, uploader media.Uploader) *Service {
	return &Service{
		users:    users,
		throttle: throttle,
		tokens:   tokens,
		uploader: uploader,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string

	// Local paths of spooled multipart files. AvatarPath is mandatory,
	// CoverImagePath may be empty.
	AvatarPath     string
	CoverImagePath string
}

/*
Register creates a new account, uploads its avatar (and optional cover image),
and returns the stored entity.

Description: Every identity field must be non-blank after trimming. Username
and email are normalized (NFKC, lowercased) before the uniqueness check so
"Ann@X.com" and "ann@x.com" collide.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created account (password hash and refresh token never serialize)
  - error: Validation, conflict, upload, or persistence errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Required(FieldFullName, input.FullName).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	username := normalize.Username(input.Username)
	email := normalize.Email(input.Email)

	validator = &validate.Validator{}
	validator.
		Email(FieldEmail, email).
		MaxLen(FieldUsername, username, 64).
		MaxLen(FieldFullName, input.FullName, 128)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	exists, err := service.users.ExistsByIdentity(context, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("User with email or username already exists")
	}

	if input.AvatarPath == "" {
		return nil, apperr.BadRequest("Avatar file is required")
	}

	avatarURL, err := service.uploader.Upload(context, input.AvatarPath)
	if err != nil {
		return nil, apperr.BadRequest("Avatar upload failed")
	}

	var coverImageURL string
	if input.CoverImagePath != "" {
		coverImageURL, err = service.uploader.Upload(context, input.CoverImagePath)
		if err != nil {
			return nil, apperr.BadRequest("Cover image upload failed")
		}
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &User{
		ID:            uuidv7.New(),
		Username:      username,
		Email:         email,
		FullName:      input.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
Login authenticates a user by username or email and issues a token pair.

Description: Failed attempts per identifier are counted in Redis; once the
window limit is reached further attempts are rejected before the password is
even checked. A successful login resets the counter.

Parameters:
  - context: context.Context
  - login: string (Username or email)
  - password: string

Returns:
  - *Session: Authenticated user plus token pair
  - error: Validation, throttle, or credential errors
*/
func (service *Service) Login(context context.Context, login, password string) (*Session, error) {
	validator := &validate.Validator{}
	validator.
		Required("login", login).
		Required(FieldPassword, password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	login = normalize.Username(login)

	failures, err := service.throttle.Failures(context, login)
	if err != nil {
		return nil, err
	}
	if failures >= MaxLoginAttempts {
		return nil, apperr.RateLimited("Too many failed login attempts, try again later")
	}

	user, err := service.users.FindByLogin(context, login)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		// The counter write is best-effort: a Redis fault must not turn a
		// wrong password into a 500.
		service.throttle.RecordFailure(context, login, LoginAttemptWindow)
		return nil, apperr.Unauthorized("Invalid user credentials")
	}

	pair, err := service.tokens.Issue(context, user.ID)
	if err != nil {
		return nil, err
	}

	// Clearing the counter is best-effort too: stale failure counts expire
	// with the window, and a Redis fault must not fail a valid login.
	service.throttle.Reset(context, login)

	user.RefreshToken = pair.RefreshToken

	return &Session{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

/*
Logout revokes the user's trusted refresh token.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence errors
*/
func (service *Service) Logout(context context.Context, userID string) error {
	return service.tokens.Revoke(context, userID)
}

/*
Refresh rotates a presented refresh token into a new pair.

This is a thin pass-through to the token service so handlers depend on a
single application-facing type.
*/
func (service *Service) Refresh(context context.Context, presented string) (*TokenPair, error) {
	return service.tokens.Refresh(context, presented)
}

/*
ChangePassword replaces the user's password after verifying the current one.

Parameters:
  - context: context.Context
  - userID: string
  - oldPassword: string
  - newPassword: string

Returns:
  - error: Validation errors, apperr 400 for a wrong old password
*/
func (service *Service) ChangePassword(context context.Context, userID, oldPassword, newPassword string) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldOldPassword, oldPassword).
		Required(FieldNewPassword, newPassword)
	if err := validator.Err(); err != nil {
		return err
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return apperr.BadRequest("Invalid old password")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	return service.users.UpdatePassword(context, userID, newHash)
}

/*
Profile returns the account of the given user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Account entity
  - error: apperr.NotFound or execution errors
*/
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

/*
UpdateAccountDetails replaces the user's full name and email.

Description: Both fields are mandatory. The email is normalized before the
write so the unique index sees the canonical form.

Parameters:
  - context: context.Context
  - userID: string
  - fullName: string
  - email: string

Returns:
  - *User: Updated account entity
  - error: Validation, conflict, or persistence errors
*/
func (service *Service) UpdateAccountDetails(context context.Context, userID, fullName, email string) (*User, error) {
	validator := &validate.Validator{}
	validator.
		Required(FieldFullName, fullName).
		Required(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	email = normalize.Email(email)

	validator = &validate.Validator{}
	validator.Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.users.UpdateAccountDetails(context, userID, fullName, email)
}

/*
UpdateAvatar uploads a new avatar file and stores its public URL.

Parameters:
  - context: context.Context
  - userID: string
  - localPath: string (Spooled multipart file)

Returns:
  - *User: Updated account entity
  - error: apperr 400 for a missing file or failed upload
*/
func (service *Service) UpdateAvatar(context context.Context, userID, localPath string) (*User, error) {
	if localPath == "" {
		return nil, apperr.BadRequest("Avatar file is missing")
	}

	url, err := service.uploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.BadRequest("Error while uploading avatar")
	}

	return service.users.UpdateAvatarURL(context, userID, url)
}

/*
UpdateCoverImage uploads a new cover image file and stores its public URL.

Parameters:
  - context: context.Context
  - userID: string
  - localPath: string (Spooled multipart file)

Returns:
  - *User: Updated account entity
  - error: apperr 400 for a missing file or failed upload
*/
func (service *Service) UpdateCoverImage(context context.Context, userID, localPath string) (*User, error) {
	if localPath == "" {
		return nil, apperr.BadRequest("Cover image file is missing")
	}

	url, err := service.uploader.Upload(context, localPath)
	if err != nil {
		return nil, apperr.BadRequest("Error while uploading cover image")
	}

	return service.users.UpdateCoverImageURL(context, userID, url)
}
