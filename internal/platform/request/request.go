// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away body decoding, multipart-file spooling, and identity
extraction, ensuring consistent error handling and type safety across the
handler layer.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/constants"
	"github.com/minhngo/clipstream/internal/platform/ctxutil"
	"github.com/minhngo/clipstream/internal/platform/sec"
	"github.com/minhngo/clipstream/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
SpoolFormFile copies the named multipart form file to a temporary directory
and returns its local path.

The media uploader operates on local file paths, so multipart uploads are
spooled to disk first. The caller's uploader removes the file after transfer.

Returns:
  - string: Local filesystem path of the spooled file ("" if the field is absent)
  - error: Spooling failures (never a missing-field error — absence is the caller's policy)
*/
func SpoolFormFile(request *http.Request, field string) (string, error) {
	file, header, err := request.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apperr.BadRequest("Malformed multipart upload")
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp("", constants.UploadTempDirPattern)
	if err != nil {
		return "", apperr.Internal(err)
	}

	// Keep the original extension so the uploader can infer the content type.
	localPath := filepath.Join(tempDir, filepath.Base(header.Filename))
	destination, err := os.Create(localPath)
	if err != nil {
		return "", apperr.Internal(err)
	}
	defer destination.Close()

	// Copy one byte past the cap so an oversized part is detected instead of
	// silently truncated to the limit.
	written, err := io.Copy(destination, io.LimitReader(file, constants.MaxUploadBytes+1))
	if err != nil {
		return "", apperr.Internal(err)
	}
	if written > constants.MaxUploadBytes {
		_ = os.Remove(localPath)
		return "", apperr.BadRequest("Uploaded file exceeds the maximum allowed size")
	}

	return localPath, nil
}

/*
Claims extracts the authenticated token claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AccessClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the token claims.

Returns:
  - *sec.AccessClaims: The authenticated token claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AccessClaims, error) {

	// Get user claims
	claims := ctxutil.GetAuthUser(request.Context())

	// If the user is not authenticated, return an error
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {

	// Get user claims
	claims, err := RequiredClaims(request)

	// If the user is not authenticated, return an error
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}
