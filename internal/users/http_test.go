// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package users_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhngo/clipstream/internal/platform/middleware"
	"github.com/minhngo/clipstream/internal/users"
)

// newTestRouter wires the handler under the authentication middleware, the
// same shape the real server mounts it in.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := newMemoryUserRepository()
	tokens := users.NewTokenService(repo, newTestCodec(t))
	service := users.NewService(repo, newMemoryThrottle(), tokens, &fakeUploader{})
	handler := users.NewHandler(service)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/api/v1/users", handler.Routes())
	return router
}

// registrationForm builds the multipart body the register endpoint expects.
func registrationForm(t *testing.T, includeAvatar bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	require.NoError(t, form.WriteField("username", "ann"))
	require.NoError(t, form.WriteField("email", "ann@x.com"))
	require.NoError(t, form.WriteField("fullName", "Ann A"))
	require.NoError(t, form.WriteField("password", "password123"))

	if includeAvatar {
		file, err := form.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = file.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}

	require.NoError(t, form.Close())
	return body, form.FormDataContentType()
}

func decodeEnvelope(t *testing.T, response *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &envelope))
	return envelope
}

/*
TestHandler_Register verifies the 201 envelope and that the created user
payload carries no credential material.
*/
func TestHandler_Register(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := registrationForm(t, true)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	request.Header.Set("Content-Type", contentType)

	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	envelope := decodeEnvelope(t, response)
	assert.Equal(t, float64(http.StatusCreated), envelope["statusCode"])
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "User registered successfully", envelope["message"])

	createdUser, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ann", createdUser["username"])
	assert.NotContains(t, createdUser, "password")
	assert.NotContains(t, createdUser, "passwordHash")
	assert.NotContains(t, createdUser, "refreshToken")
}

/*
TestHandler_Register_MissingAvatar verifies that a form without the avatar
file is rejected with a 400 error envelope.
*/
func TestHandler_Register_MissingAvatar(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := registrationForm(t, false)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	request.Header.Set("Content-Type", contentType)

	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)

	require.Equal(t, http.StatusBadRequest, response.Code)

	envelope := decodeEnvelope(t, response)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Avatar file is required", envelope["message"])
}

// registerAndLogin drives the full flow and returns the login response.
func registerAndLogin(t *testing.T, router http.Handler, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := registrationForm(t, true)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	request.Header.Set("Content-Type", contentType)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	loginBody := strings.NewReader(`{"username": "ann", "password": "` + password + `"}`)
	request = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", loginBody)
	request.Header.Set("Content-Type", "application/json")
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func cookieByName(response *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range response.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

/*
TestHandler_Login verifies cookie injection on success and the cookie-free
401 on a wrong password.
*/
func TestHandler_Login(t *testing.T) {
	router := newTestRouter(t)

	// 1. Wrong password: 401 and no cookies set
	response := registerAndLogin(t, router, "wrong-password")
	require.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Empty(t, response.Result().Cookies())

	envelope := decodeEnvelope(t, response)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, float64(http.StatusUnauthorized), envelope["statusCode"])

	// 2. Correct password: 200 with both httpOnly cookies
	response = registerAndLoginFresh(t)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	accessCookie := cookieByName(response, "accessToken")
	refreshCookie := cookieByName(response, "refreshToken")
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)
	assert.True(t, accessCookie.HttpOnly)
	assert.True(t, accessCookie.Secure)
	assert.True(t, refreshCookie.HttpOnly)
	assert.True(t, refreshCookie.Secure)
}

// registerAndLoginFresh runs the happy-path flow on a fresh router, since a
// failed login attempt counts against the throttle window.
func registerAndLoginFresh(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	router := newTestRouter(t)
	return registerAndLogin(t, router, "password123")
}

/*
TestHandler_RefreshToken verifies rotation via the cookie, replay rejection,
and the body-field alternative.
*/
func TestHandler_RefreshToken(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	firstRefresh := cookieByName(login, "refreshToken")
	require.NotNil(t, firstRefresh)

	// 1. Rotation via cookie succeeds and sets new cookies
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	request.AddCookie(firstRefresh)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	secondRefresh := cookieByName(response, "refreshToken")
	require.NotNil(t, secondRefresh)
	assert.NotEqual(t, firstRefresh.Value, secondRefresh.Value)

	// 2. Replaying the first token fails
	request = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	request.AddCookie(firstRefresh)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Equal(t, "Refresh token is expired or used", decodeEnvelope(t, response)["message"])

	// 3. The body-field form works without the cookie
	body := strings.NewReader(`{"refreshToken": "` + secondRefresh.Value + `"}`)
	request = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", body)
	request.Header.Set("Content-Type", "application/json")
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	assert.Equal(t, http.StatusOK, response.Code, response.Body.String())

	// 4. No token at all is rejected
	request = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

/*
TestHandler_ProtectedRoutes verifies that the request gate accepts the
Bearer-header form and blocks anonymous access.
*/
func TestHandler_ProtectedRoutes(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	accessCookie := cookieByName(login, "accessToken")
	require.NotNil(t, accessCookie)

	// 1. Anonymous access to a protected route is blocked
	request := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusUnauthorized, response.Code)

	// 2. Authorization: Bearer works as the cookie alternative
	request = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	request.Header.Set("Authorization", "Bearer "+accessCookie.Value)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	profile, ok := decodeEnvelope(t, response)["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ann", profile["username"])
	assert.NotContains(t, profile, "refreshToken")

	// 3. A malformed Authorization header is an explicit 401
	request = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	request.Header.Set("Authorization", "Token "+accessCookie.Value)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

/*
TestHandler_Logout verifies that logout clears both cookies and kills the
refresh credential.
*/
func TestHandler_Logout(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	accessCookie := cookieByName(login, "accessToken")
	refreshCookie := cookieByName(login, "refreshToken")
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)

	// 1. Logout clears both cookies
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	request.AddCookie(accessCookie)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	for _, name := range []string{"accessToken", "refreshToken"} {
		cleared := cookieByName(response, name)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
	}

	// 2. The refresh token from before logout is no longer usable
	request = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	request.AddCookie(refreshCookie)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

/*
TestHandler_ChangePassword verifies the authenticated password change flow
over HTTP.
*/
func TestHandler_ChangePassword(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	accessCookie := cookieByName(login, "accessToken")
	require.NotNil(t, accessCookie)

	body := strings.NewReader(`{"oldPassword": "password123", "newPassword": "newpassword1"}`)
	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", body)
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(accessCookie)

	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	assert.Equal(t, "Password changed successfully", decodeEnvelope(t, response)["message"])
}

/*
TestHandler_UpdateAccount verifies the profile update endpoint and its
mandatory-fields rule.
*/
func TestHandler_UpdateAccount(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	accessCookie := cookieByName(login, "accessToken")
	require.NotNil(t, accessCookie)

	// 1. Blank fullName is rejected
	body := strings.NewReader(`{"fullName": " ", "email": "new@x.com"}`)
	request := httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-account", body)
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(accessCookie)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusBadRequest, response.Code)

	// 2. Valid update returns the changed profile
	body = strings.NewReader(`{"fullName": "Ann B", "email": "new@x.com"}`)
	request = httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-account", body)
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(accessCookie)
	response = httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	profile, ok := decodeEnvelope(t, response)["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ann B", profile["fullName"])
	assert.Equal(t, "new@x.com", profile["email"])
}

/*
TestHandler_UpdateAvatar verifies the single-file avatar update endpoint.
*/
func TestHandler_UpdateAvatar(t *testing.T) {
	router := newTestRouter(t)
	login := registerAndLogin(t, router, "password123")
	require.Equal(t, http.StatusOK, login.Code)

	accessCookie := cookieByName(login, "accessToken")
	require.NotNil(t, accessCookie)

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	file, err := form.CreateFormFile("file", "new-avatar.png")
	require.NoError(t, err)
	_, err = file.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	request.AddCookie(accessCookie)

	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	assert.Equal(t, "Avatar image updated successfully", decodeEnvelope(t, response)["message"])
}
