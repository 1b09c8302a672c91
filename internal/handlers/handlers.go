// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers exposes the recovery flow over HTTP.
package handlers

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/recovery-service/internal/i18n"
	"codeberg.org/oliverandrich/recovery-service/internal/recovery"
	"github.com/labstack/echo/v4"
)

//go:embed templates/recovery.html
var templateFS embed.FS

var recoveryTemplate = template.Must(template.ParseFS(templateFS, "templates/recovery.html"))

// Handlers contains all HTTP handlers.
type Handlers struct {
	flow  *recovery.Flow
	flash *FlashCodec
}

// New creates a new Handlers instance.
func New(flow *recovery.Flow, flash *FlashCodec) *Handlers {
	return &Handlers{flow: flow, flash: flash}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type recoveryPageData struct {
	Title         string
	Placeholder   string
	Button        string
	ClosedMessage string
	Email         string
	Notice        *Flash
	Closed        bool
}

// RecoveryPage renders the recovery form, with any pending notification
// from the flash cookie.
func (h *Handlers) RecoveryPage(c echo.Context) error {
	ctx := c.Request().Context()

	data := recoveryPageData{
		Title:         i18n.T(ctx, "recovery_title"),
		Placeholder:   i18n.T(ctx, "recovery_placeholder"),
		Button:        i18n.T(ctx, "recovery_button"),
		ClosedMessage: i18n.T(ctx, "notify_closed"),
		Closed:        h.flow.State() == recovery.StateClosed,
	}

	if flash, ok := h.flash.Pop(c); ok {
		data.Notice = &flash
		data.Email = flash.Email
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return recoveryTemplate.Execute(c.Response(), data)
}

// Recover handles the form submit: it runs the flow and redirects back
// to the form with the outcome in the flash cookie.
func (h *Handlers) Recover(c echo.Context) error {
	emailText := c.FormValue("email")

	outcome := h.flow.Submit(c.Request().Context(), emailText)

	flash := Flash{
		Kind:    "error",
		Message: outcome.Message,
	}
	if outcome.Status == recovery.StatusSent {
		flash.Kind = "success"
	}
	if outcome.RetainInput {
		flash.Email = emailText
	}

	if err := h.flash.Set(c, flash); err != nil {
		slog.Error("failed to set flash cookie", "error", err)
	}

	return c.Redirect(http.StatusSeeOther, "/")
}
