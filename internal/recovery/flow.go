// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package recovery implements the recovery flow controller: it takes the
// raw email text entered by the operator, resolves it against the user
// directory, dispatches the recovery email, and reports the outcome as a
// tagged result any UI layer can render.
package recovery

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"codeberg.org/oliverandrich/recovery-service/internal/directory"
	"codeberg.org/oliverandrich/recovery-service/internal/i18n"
	"github.com/google/uuid"
)

// State is the operator-visible flow state.
type State int

const (
	// StateIdle means the flow is awaiting input.
	StateIdle State = iota
	// StateClosed means a recovery email was sent and the flow is done.
	StateClosed
)

// Status tags the result of a single submit.
type Status int

const (
	StatusSent Status = iota
	StatusNotFound
	StatusSendFailed
	StatusStoreFailed
	StatusClosed
)

// Outcome is the result of one submit attempt.
type Outcome struct {
	Status   Status
	Username string // resolved username, set when Status is StatusSent
	Message  string // operator-visible notification text
	// RetainInput tells the UI to keep the entered email in the input
	// field. Cleared on "not found", kept on send failures.
	RetainInput bool
	Err         error
}

// Dispatcher sends a recovery message to a resolved user.
type Dispatcher interface {
	Send(ctx context.Context, recipientEmail, username string) error
}

// Flow orchestrates one recovery interaction. It owns its dispatcher and
// transient request state; the user directory is external and read-only.
type Flow struct {
	dir        directory.Directory
	dispatcher Dispatcher

	mu    sync.Mutex
	state State
}

// New creates a Flow in the Idle state.
func New(dir directory.Directory, dispatcher Dispatcher) *Flow {
	return &Flow{
		dir:        dir,
		dispatcher: dispatcher,
		state:      StateIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit runs one recovery attempt for the entered email text. Blank or
// syntactically invalid input falls through to the lookup and comes back
// as "not found". Every failure is terminal for the attempt; there is no
// retry logic.
func (f *Flow) Submit(ctx context.Context, emailText string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return Outcome{
			Status:  StatusClosed,
			Message: i18n.T(ctx, "notify_closed"),
		}
	}

	attempt := uuid.New().String()
	email := directory.NormalizeEmail(emailText)

	username, err := f.dir.FindByEmail(ctx, email)
	if err != nil {
		var storeErr *directory.StoreError
		switch {
		case errors.Is(err, directory.ErrNotFound):
			slog.Info("no user found for recovery request", "attempt", attempt)
			return Outcome{
				Status:  StatusNotFound,
				Message: i18n.T(ctx, "notify_not_found"),
				Err:     err,
			}
		case errors.As(err, &storeErr):
			slog.Error("user store failed to load", "attempt", attempt, "error", err)
			return Outcome{
				Status:      StatusStoreFailed,
				Message:     err.Error(),
				RetainInput: true,
				Err:         err,
			}
		default:
			slog.Error("user lookup failed", "attempt", attempt, "error", err)
			return Outcome{
				Status:      StatusStoreFailed,
				Message:     err.Error(),
				RetainInput: true,
				Err:         err,
			}
		}
	}

	slog.Info("sending recovery email", "attempt", attempt, "username", username)

	if err := f.dispatcher.Send(ctx, email, username); err != nil {
		slog.Error("recovery email failed", "attempt", attempt, "username", username, "error", err)
		return Outcome{
			Status:      StatusSendFailed,
			Message:     err.Error(),
			RetainInput: true,
			Err:         err,
		}
	}

	f.state = StateClosed
	slog.Info("recovery email sent", "attempt", attempt, "username", username)

	return Outcome{
		Status:   StatusSent,
		Username: username,
		Message:  i18n.T(ctx, "notify_success"),
	}
}
