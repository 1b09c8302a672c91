// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrCredentials marks any failure to load the sender credentials file.
// The flow treats it as fatal: without credentials the send capability
// must not come up.
var ErrCredentials = errors.New("email credentials")

// Credentials is the sender credential pair used to authenticate against
// the SMTP relay. Held in memory only; never persisted or logged.
type Credentials struct {
	SenderEmail    string `json:"sender_email"`
	SenderPassword string `json:"sender_password"`
}

// LoadCredentials reads the credentials JSON file at path. It fails when
// the file is missing, is not valid JSON, or either field is blank.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCredentials, path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrCredentials, path, err)
	}

	if creds.SenderEmail == "" || creds.SenderPassword == "" {
		return nil, fmt.Errorf("%w: missing sender_email or sender_password in %s", ErrCredentials, path)
	}

	return &creds, nil
}
