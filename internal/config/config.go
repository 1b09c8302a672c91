// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"github.com/urfave/cli/v3"
)

// Store backends supported by the user directory.
const (
	StoreBackendJSON   = "json"
	StoreBackendSQLite = "sqlite"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server ServerConfig
	Log    LogConfig
	SMTP   SMTPConfig
	Store  StoreConfig
	Flash  FlashConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host            string
	Port            int
	CredentialsFile string // JSON file with sender_email/sender_password
}

type StoreConfig struct {
	Backend string // json, sqlite
	Path    string // JSON store file
	DSN     string // SQLite DSN
}

type FlashConfig struct {
	HashKey string // hex-encoded key for signing the flash cookie
}

// NewFromCLI builds the configuration from CLI flags (with env and TOML
// sources already resolved by urfave/cli).
func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			Host: cmd.String("host"),
			Port: int(cmd.Int("port")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		SMTP: SMTPConfig{
			Host:            cmd.String("smtp-host"),
			Port:            int(cmd.Int("smtp-port")),
			CredentialsFile: cmd.String("smtp-credentials"),
		},
		Store: StoreConfig{
			Backend: cmd.String("store-backend"),
			Path:    cmd.String("store-path"),
			DSN:     cmd.String("store-dsn"),
		},
		Flash: FlashConfig{
			HashKey: cmd.String("flash-hash-key"),
		},
	}
}
