// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

const flashCookieName = "recovery_flash"

// Flash carries the notification and retained input across the
// POST→redirect→GET cycle, signed so the client cannot forge it.
type Flash struct {
	Kind    string `json:"kind"` // success, error
	Message string `json:"message"`
	Email   string `json:"email"` // retained input, empty when cleared
}

// FlashCodec signs and verifies flash cookies.
type FlashCodec struct {
	sc *securecookie.SecureCookie
}

// NewFlashCodec creates a codec from a hex-encoded hash key. An empty
// key falls back to a random per-process key, which is fine for a
// single-instance deployment.
func NewFlashCodec(hexHashKey string) (*FlashCodec, error) {
	var hashKey []byte
	if hexHashKey == "" {
		hashKey = securecookie.GenerateRandomKey(32)
	} else {
		var err error
		hashKey, err = hex.DecodeString(hexHashKey)
		if err != nil {
			return nil, err
		}
	}

	sc := securecookie.New(hashKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})

	return &FlashCodec{sc: sc}, nil
}

// Set writes the flash cookie on the response.
func (f *FlashCodec) Set(c echo.Context, flash Flash) error {
	encoded, err := f.sc.Encode(flashCookieName, flash)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop reads and clears the flash cookie. A missing or invalid cookie
// returns ok=false.
func (f *FlashCodec) Pop(c echo.Context) (Flash, bool) {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil {
		return Flash{}, false
	}

	var flash Flash
	if err := f.sc.Decode(flashCookieName, cookie.Value, &flash); err != nil {
		return Flash{}, false
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return flash, true
}
