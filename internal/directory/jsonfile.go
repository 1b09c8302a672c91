// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package directory

import (
	"context"
	"encoding/json"
	"os"
	"sort"
)

// JSONStore is a Directory backed by a flat JSON file mapping
// username -> {email, password_hash}. The file is external and shared;
// it is re-read on every lookup and never written by this package.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSONStore for the given file path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// LoadAll reads and validates the whole store. Any record missing a
// field or carrying a malformed email aborts the load with a *StoreError
// naming the offending username.
func (s *JSONStore) LoadAll() (map[string]UserRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	var users map[string]UserRecord
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, &StoreError{Err: err}
	}

	for _, username := range sortedUsernames(users) {
		if err := validateRecord(username, users[username]); err != nil {
			return nil, err
		}
	}

	return users, nil
}

// FindByEmail loads the store and scans for a record whose normalized
// email equals the normalized query. JSON object order is not preserved
// by Go maps, so the scan walks usernames in sorted order; on duplicate
// emails the first username in that order wins.
func (s *JSONStore) FindByEmail(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	users, err := s.LoadAll()
	if err != nil {
		return "", err
	}

	query := NormalizeEmail(email)
	for _, username := range sortedUsernames(users) {
		if NormalizeEmail(users[username].Email) == query {
			return username, nil
		}
	}

	return "", ErrNotFound
}

func sortedUsernames(users map[string]UserRecord) []string {
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
