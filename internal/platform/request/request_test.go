// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

package requestutil_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhngo/clipstream/internal/platform/apperr"
	"github.com/minhngo/clipstream/internal/platform/constants"
	requestutil "github.com/minhngo/clipstream/internal/platform/request"
)

// multipartRequest builds a multipart/form-data POST carrying a single file part.
func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

func TestSpoolFormFile_CopiesContentToDisk(t *testing.T) {
	content := []byte("portrait bytes")
	request := multipartRequest(t, "avatar", "portrait.png", content)

	// 1. Spool the part to a temporary file.
	localPath, err := requestutil.SpoolFormFile(request, "avatar")
	require.NoError(t, err)
	require.NotEmpty(t, localPath)
	t.Cleanup(func() { _ = os.Remove(localPath) })

	// 2. The spooled file must hold the exact bytes of the part.
	spooled, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Equal(t, content, spooled)
}

func TestSpoolFormFile_AbsentFieldIsNotAnError(t *testing.T) {
	request := multipartRequest(t, "coverImage", "cover.png", []byte("x"))

	// Absence of an optional part yields an empty path, not an error.
	localPath, err := requestutil.SpoolFormFile(request, "avatar")
	require.NoError(t, err)
	assert.Empty(t, localPath)
}

func TestSpoolFormFile_RejectsOversizedFile(t *testing.T) {
	// 1. Build a part one byte past the upload cap.
	content := make([]byte, constants.MaxUploadBytes+1)
	request := multipartRequest(t, "avatar", "huge.png", content)

	// 2. Spooling must fail loudly rather than truncate to the cap.
	localPath, err := requestutil.SpoolFormFile(request, "avatar")
	require.Error(t, err)
	assert.Empty(t, localPath)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)
	assert.Equal(t, "Uploaded file exceeds the maximum allowed size", appError.Message)
}

func TestSpoolFormFile_AcceptsFileAtTheLimit(t *testing.T) {
	content := make([]byte, constants.MaxUploadBytes)
	request := multipartRequest(t, "avatar", "limit.png", content)

	localPath, err := requestutil.SpoolFormFile(request, "avatar")
	require.NoError(t, err)
	require.NotEmpty(t, localPath)
	t.Cleanup(func() { _ = os.Remove(localPath) })

	info, err := os.Stat(localPath)
	require.NoError(t, err)
	assert.EqualValues(t, constants.MaxUploadBytes, info.Size())
}
