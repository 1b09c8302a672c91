// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package mailer sends the recovery email over an authenticated
// STARTTLS SMTP session.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"codeberg.org/oliverandrich/recovery-service/internal/config"
	"codeberg.org/oliverandrich/recovery-service/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Cause classifies a failed send attempt.
type Cause string

const (
	CauseAuth    Cause = "auth"
	CauseConnect Cause = "connect"
	CauseOther   Cause = "other"
)

// SendError reports a failed send with its transport-level cause.
type SendError struct {
	Cause Cause
	Err   error
}

func (e *SendError) Error() string {
	switch e.Cause {
	case CauseAuth:
		return fmt.Sprintf("authentication error: unable to authenticate with SMTP server: %v", e.Err)
	case CauseConnect:
		return fmt.Sprintf("connection error: could not connect to SMTP server: %v", e.Err)
	default:
		return fmt.Sprintf("failed to send the recovery email: %v", e.Err)
	}
}

func (e *SendError) Unwrap() error { return e.Err }

// Dispatcher sends recovery messages with a fixed sender identity.
type Dispatcher struct {
	host  string
	port  int
	creds *config.Credentials
}

// NewDispatcher creates a Dispatcher for the given relay endpoint and
// sender credentials.
func NewDispatcher(cfg *config.SMTPConfig, creds *config.Credentials) (*Dispatcher, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if creds == nil || creds.SenderEmail == "" || creds.SenderPassword == "" {
		return nil, errors.New("sender credentials are required")
	}

	return &Dispatcher{
		host:  cfg.Host,
		port:  cfg.Port,
		creds: creds,
	}, nil
}

// Send transmits a single plain-text recovery message to recipientEmail.
// The connection is opened, used, and closed within the call; failures
// come back as *SendError with a cause classification.
//
// The body intentionally carries the literal ['password_hash'] placeholder
// the legacy system produced, not any stored secret.
func (d *Dispatcher) Send(ctx context.Context, recipientEmail, username string) error {
	msg := mail.NewMsg()

	if err := msg.From(d.creds.SenderEmail); err != nil {
		return &SendError{Cause: CauseOther, Err: fmt.Errorf("setting from address: %w", err)}
	}
	if err := msg.To(recipientEmail); err != nil {
		return &SendError{Cause: CauseOther, Err: fmt.Errorf("setting to address: %w", err)}
	}

	msg.Subject(i18n.T(ctx, "recovery_email_subject"))
	msg.SetBodyString(mail.TypeTextPlain, i18n.TData(ctx, "recovery_email_body", map[string]any{
		"Username": username,
	}))

	client, err := mail.NewClient(d.host,
		mail.WithPort(d.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.creds.SenderEmail),
		mail.WithPassword(d.creds.SenderPassword),
	)
	if err != nil {
		return &SendError{Cause: CauseOther, Err: fmt.Errorf("creating mail client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &SendError{Cause: Classify(err), Err: err}
	}

	return nil
}

// Classify maps a transport error onto the send-failure taxonomy.
func Classify(err error) Cause {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CauseConnect
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "535") || strings.Contains(msg, "auth") {
		return CauseAuth
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && sendErr.Reason == mail.ErrConnCheck {
		return CauseConnect
	}
	if strings.Contains(msg, "dial") || strings.Contains(msg, "connect") {
		return CauseConnect
	}

	return CauseOther
}
