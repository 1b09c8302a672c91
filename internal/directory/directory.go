// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package directory answers lookup-by-email queries against a read-only
// user store. Two backends exist: a flat JSON file and a SQLite database.
package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotFound is returned when no record matches the queried email.
var ErrNotFound = errors.New("no user with that email")

// emailPattern must match the whole address: local part, @, and a domain
// containing at least one dot. Whitespace never matches.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)

// UserRecord is a single entry of the user store, keyed by username.
type UserRecord struct {
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"password_hash" db:"password_hash"`
}

// Directory resolves a (normalized) email address to a username.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (string, error)
}

// StoreError reports a store that is missing, unparseable, or fails
// schema validation. Validation is all-or-nothing: one bad record fails
// the whole load.
type StoreError struct {
	Username string // offending record, if validation failed
	Err      error
}

func (e *StoreError) Error() string {
	if e.Username != "" {
		return fmt.Sprintf("user store: record %q: %v", e.Username, e.Err)
	}
	return fmt.Sprintf("user store: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NormalizeEmail trims surrounding whitespace and case-folds, the form
// used for both queries and stored values during comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address matches the store's email
// grammar in full.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateRecord checks the presence and grammar invariants shared by
// both backends.
func validateRecord(username string, rec UserRecord) error {
	if rec.Email == "" || rec.PasswordHash == "" {
		return &StoreError{Username: username, Err: errors.New("missing email or password_hash")}
	}
	if !ValidEmail(rec.Email) {
		return &StoreError{Username: username, Err: fmt.Errorf("invalid email format: %q", rec.Email)}
	}
	return nil
}
