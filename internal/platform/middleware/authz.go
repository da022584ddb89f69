// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/constants"
	"github.com/minhngo/clipstream/internal/platform/ctxkey"
	"github.com/minhngo/clipstream/internal/platform/respond"
	"github.com/minhngo/clipstream/internal/platform/sec"
)

// AccessVerifier defines the contract the request gate needs to authenticate
// an inbound bearer token.
//
// # Why an interface?
//
// Defining AccessVerifier here decouples the middleware from the token
// service implementation, allowing tests to inject lightweight fakes. The
// implementation is expected to verify the signature AND confirm a live user
// record still exists for the embedded subject.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*sec.AccessClaims, error)
}

// Authenticate extracts and verifies the access token on every request.
//
// # Flow
//  1. Look for the token in the accessToken cookie, then in the
//     'Authorization: Bearer <token>' header (prefix stripped).
//  2. If absent, the request proceeds as anonymous.
//  3. If present, verify via [AccessVerifier].
//  4. Inject [*sec.AccessClaims] into the request context for downstream use.
func Authenticate(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token, err := TokenFromRequest(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccess(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// TokenFromRequest resolves the bearer token from the cookie or header form.
//
// The cookie wins when both are present; the header form must use the
// "Bearer" scheme. A present-but-malformed Authorization header is an error
// rather than anonymous access.
func TokenFromRequest(request *http.Request) (string, error) {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return "", nil
	}

	if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
		return "", apperr.Unauthorized("Invalid authorization format")
	}

	return strings.TrimPrefix(authHeader, constants.BearerPrefix), nil
}

// GetUser retrieves the [*sec.AccessClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AccessClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AccessClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
