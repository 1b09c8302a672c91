// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// WriteUserStore writes a JSON user store into a temp dir and returns its path.
func WriteUserStore(t *testing.T, users map[string]map[string]string) string {
	t.Helper()
	data, err := json.Marshal(users)
	require.NoError(t, err)
	return WriteFile(t, "users_db.json", data)
}

// WriteCredentials writes a sender credentials file and returns its path.
func WriteCredentials(t *testing.T, senderEmail, senderPassword string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"sender_email":    senderEmail,
		"sender_password": senderPassword,
	})
	require.NoError(t, err)
	return WriteFile(t, "email_config.json", data)
}

// WriteFile writes arbitrary bytes into a temp dir and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewFormContext creates an Echo context carrying a form-encoded body.
func NewFormContext(e *echo.Echo, method, path, form string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
