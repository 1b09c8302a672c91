// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"codeberg.org/oliverandrich/recovery-service/internal/directory"
	"codeberg.org/oliverandrich/recovery-service/internal/handlers"
	"codeberg.org/oliverandrich/recovery-service/internal/i18n"
	"codeberg.org/oliverandrich/recovery-service/internal/mailer"
	"codeberg.org/oliverandrich/recovery-service/internal/recovery"
	"codeberg.org/oliverandrich/recovery-service/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type stubDispatcher struct {
	err error
}

func (d *stubDispatcher) Send(context.Context, string, string) error {
	return d.err
}

func newHandlers(t *testing.T, dispatcher recovery.Dispatcher) (*handlers.Handlers, *handlers.FlashCodec) {
	t.Helper()
	path := testutil.WriteUserStore(t, map[string]map[string]string{
		"alice": {"email": "a@x.com", "password_hash": "h1"},
	})
	flow := recovery.New(directory.NewJSONStore(path), dispatcher)
	codec, err := handlers.NewFlashCodec("")
	require.NoError(t, err)
	return handlers.New(flow, codec), codec
}

func TestHealth(t *testing.T) {
	h, _ := newHandlers(t, &stubDispatcher{})
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/health", nil)

	require.NoError(t, h.Health(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecoveryPage(t *testing.T) {
	h, _ := newHandlers(t, &stubDispatcher{})
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)

	require.NoError(t, h.RecoveryPage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password Recovery")
	assert.Contains(t, rec.Body.String(), "Send Recovery Email")
	assert.Contains(t, rec.Body.String(), `action="/recover"`)
}

func TestRecover_Success(t *testing.T) {
	h, codec := newHandlers(t, &stubDispatcher{})
	e := echo.New()
	c, rec := testutil.NewFormContext(e, http.MethodPost, "/recover", "email=a%40x.com")

	require.NoError(t, h.Recover(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	flash := popFlash(t, e, codec, rec)
	assert.Equal(t, "success", flash.Kind)
	assert.Equal(t, "A recovery email has been sent.", flash.Message)
	assert.Empty(t, flash.Email)
}

func TestRecover_NotFound_ClearsInput(t *testing.T) {
	h, codec := newHandlers(t, &stubDispatcher{})
	e := echo.New()
	c, rec := testutil.NewFormContext(e, http.MethodPost, "/recover", "email=bob%40x.com")

	require.NoError(t, h.Recover(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	flash := popFlash(t, e, codec, rec)
	assert.Equal(t, "error", flash.Kind)
	assert.Equal(t, "Email not found. Please try again.", flash.Message)
	assert.Empty(t, flash.Email)
}

func TestRecover_SendFailure_RetainsInput(t *testing.T) {
	sendErr := &mailer.SendError{Cause: mailer.CauseAuth, Err: assert.AnError}
	h, codec := newHandlers(t, &stubDispatcher{err: sendErr})
	e := echo.New()
	c, rec := testutil.NewFormContext(e, http.MethodPost, "/recover", "email=a%40x.com")

	require.NoError(t, h.Recover(c))

	flash := popFlash(t, e, codec, rec)
	assert.Equal(t, "error", flash.Kind)
	assert.Contains(t, flash.Message, "authentication error")
	assert.Equal(t, "a@x.com", flash.Email)
}

func TestRecoveryPage_ShowsFlashAndRetainedInput(t *testing.T) {
	h, _ := newHandlers(t, &stubDispatcher{err: &mailer.SendError{Cause: mailer.CauseConnect, Err: assert.AnError}})
	e := echo.New()

	c, rec := testutil.NewFormContext(e, http.MethodPost, "/recover", "email=a%40x.com")
	require.NoError(t, h.Recover(c))

	// Follow the redirect with the flash cookie attached.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req, rec2)

	require.NoError(t, h.RecoveryPage(c2))

	body := rec2.Body.String()
	assert.Contains(t, body, "connection error")
	assert.Contains(t, body, `value="a@x.com"`)
}

func TestRecoveryPage_ClosedAfterSuccess(t *testing.T) {
	h, _ := newHandlers(t, &stubDispatcher{})
	e := echo.New()

	c, _ := testutil.NewFormContext(e, http.MethodPost, "/recover", "email=a%40x.com")
	require.NoError(t, h.Recover(c))

	c2, rec2 := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
	require.NoError(t, h.RecoveryPage(c2))

	body := rec2.Body.String()
	assert.Contains(t, body, "This recovery request has been completed.")
	assert.NotContains(t, body, `action="/recover"`)
}

// popFlash decodes the flash cookie a handler set on rec.
func popFlash(t *testing.T, e *echo.Echo, codec *handlers.FlashCodec, rec *httptest.ResponseRecorder) handlers.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	flash, ok := codec.Pop(c)
	require.True(t, ok)
	return flash
}
