// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minhngo/clipstream/internal/platform/constants"
	"github.com/minhngo/clipstream/internal/platform/middleware"
	requestutil "github.com/minhngo/clipstream/internal/platform/request"
	"github.com/minhngo/clipstream/internal/platform/respond"
	"github.com/minhngo/clipstream/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the account-related HTTP endpoints.
//
// # Scope
//
// This handler manages the full account lifecycle (registration, sessions,
// password changes, profile and image updates). It is strictly responsible
// for transport concerns: decoding, cookies, status codes, and envelopes.
type Handler struct {
	userService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{userService: service}
}

// Routes returns a [chi.Router] configured with account routes.
//
// # Endpoints
//   - POST /register       : Creates a new account (multipart).
//   - POST /login          : Authenticates and sets the token cookies.
//   - POST /refresh-token  : Rotates the refresh token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refreshToken)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
		r.Get("/current-user", handler.currentUser)
		r.Patch("/update-account", handler.updateAccount)
		r.Patch("/avatar", handler.updateAvatar)
		r.Patch("/cover-image", handler.updateCoverImage)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/users/register

Description: Accepts a multipart form with the identity fields plus an
`avatar` file (mandatory) and a `coverImage` file (optional). The avatar is
uploaded to the media host before the account row is created.

Request:
  - Form fields: username, email, fullName, password
  - Form files: avatar (required), coverImage (optional)

Response:
  - 201: User: Created account, without password or refresh token
  - 400: ErrInvalidJSON: Blank fields or missing avatar
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		respond.Error(writer, request, validate.RequiredError(FieldAvatar, "Multipart form data is required"))
		return
	}

	avatarPath, err := requestutil.SpoolFormFile(request, FieldAvatar)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	coverImagePath, err := requestutil.SpoolFormFile(request, FieldCoverImage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Register(request.Context(), RegisterInput{
		Username:       request.FormValue(FieldUsername),
		Email:          request.FormValue(FieldEmail),
		FullName:       request.FormValue(FieldFullName),
		Password:       request.FormValue(FieldPassword),
		AvatarPath:     avatarPath,
		CoverImagePath: coverImagePath,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user, "User registered successfully")
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Description: Verifies credentials, issues the JWT pair, and injects the
accessToken and refreshToken cookies into the response. The login identifier
may arrive under either the `username` or the `email` key.

Request:
  - Body: loginRequest (Username or Email, Password)

Response:
  - 200: Session: User profile plus both tokens
  - 401: ErrUnauthorized: Invalid credentials
  - 429: ErrRateLimited: Too many failed attempts
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	login := input.Username
	if login == "" {
		login = input.Email
	}

	session, err := handler.userService.Login(request.Context(), login, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setAuthCookies(writer, session.AccessToken, session.RefreshToken)

	respond.OK(writer, session, "User logged in successfully")
}

/*
Logout terminates the current user session.

POST /api/v1/users/logout

Description: Clears the stored refresh token and expires both security
cookies on the client.

Response:
  - 200: Success: Session terminated
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearAuthCookies(writer)

	respond.OK(writer, nil, "User logged out successfully")
}

/*
RefreshToken rotates the presented refresh token into a new pair.

POST /api/v1/users/refresh-token

Description: The token may be presented via the refreshToken cookie or a JSON
body field. A successfully rotated pair replaces both cookies; the presented
token becomes unusable.

Request:
  - Cookie: refreshToken, or Body: refreshRequest (RefreshToken)

Response:
  - 200: TokenPair: Fresh access and refresh tokens
  - 401: ErrUnauthorized: Missing, invalid, or superseded token
*/
func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	presented := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var input refreshRequest
		// Body decoding is best-effort here: an empty or absent body falls
		// through to the missing-token rejection below.
		_ = requestutil.DecodeJSON(request, &input)
		presented = input.RefreshToken
	}

	pair, err := handler.userService.Refresh(request.Context(), presented)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setAuthCookies(writer, pair.AccessToken, pair.RefreshToken)

	respond.OK(writer, pair, "Access token refreshed")
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/users/change-password

Request:
  - Body: changePasswordRequest (OldPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 400: ErrInvalidJSON: Wrong old password or validation failure
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.userService.ChangePassword(request.Context(), userID, input.OldPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, nil, "Password changed successfully")
}

/*
CurrentUser returns the authenticated user's account.

GET /api/v1/users/current-user

Response:
  - 200: User: Account profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "User fetched successfully")
}

/*
UpdateAccount replaces the authenticated user's full name and email.

PATCH /api/v1/users/update-account

Request:
  - Body: updateAccountRequest (FullName, Email)

Response:
  - 200: User: Updated account profile
  - 400: ErrInvalidJSON: Blank fields
  - 409: ErrConflict: Email already in use
*/
func (handler *Handler) updateAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.userService.UpdateAccountDetails(request.Context(), userID, input.FullName, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "Account details updated successfully")
}

/*
UpdateAvatar replaces the authenticated user's avatar image.

PATCH /api/v1/users/avatar

Request:
  - Form file: file

Response:
  - 200: User: Updated account profile
  - 400: ErrInvalidJSON: Missing file or failed upload
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.updateImage(writer, request, handler.userService.UpdateAvatar, "Avatar image updated successfully")
}

/*
UpdateCoverImage replaces the authenticated user's cover image.

PATCH /api/v1/users/cover-image

Request:
  - Form file: file

Response:
  - 200: User: Updated account profile
  - 400: ErrInvalidJSON: Missing file or failed upload
*/
func (handler *Handler) updateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.updateImage(writer, request, handler.userService.UpdateCoverImage, "Cover image updated successfully")
}

// updateImage factors the shared spool-upload-respond flow of the two image
// endpoints, both of which read a single `file` multipart field.
func (handler *Handler) updateImage(
	writer http.ResponseWriter,
	request *http.Request,
	update func(ctx context.Context, userID, localPath string) (*User, error),
	message string,
) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		respond.Error(writer, request, validate.RequiredError(FieldFile, "Multipart form data is required"))
		return
	}

	localPath, err := requestutil.SpoolFormFile(request, FieldFile)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := update(request.Context(), userID, localPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, message)
}

// # Cookie Helpers

// setAuthCookies writes the accessToken and refreshToken cookies.
//
// Both are httpOnly and secure; lifetimes match the token TTLs so clients
// drop them when the tokens are no longer usable anyway.
func setAuthCookies(writer http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.AccessTokenCookieName,
		Value:    accessToken,
		Path:     constants.AuthCookiePath,
		MaxAge:   int(AccessTokenTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     constants.AuthCookiePath,
		MaxAge:   int(RefreshTokenTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both token cookies on the client.
func clearAuthCookies(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     constants.AuthCookiePath,
			MaxAge:   -1,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
