// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"

	"codeberg.org/oliverandrich/recovery-service/internal/server"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// sources creates a value source chain combining env vars and TOML config
func sources(envKey, tomlKey string, tomlSrc altsrc.Sourcer) cli.ValueSourceChain {
	chain := cli.EnvVars(envKey)
	chain.Chain = append(chain.Chain, toml.TOML(tomlKey, tomlSrc))
	return chain
}

func main() {
	var configFile string

	tomlSrc := altsrc.NewStringPtrSourcer(&configFile)

	cmd := &cli.Command{
		Name:    "recovery-service",
		Usage:   "Password recovery service",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			// Config file
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Value:       "config.toml",
				Usage:       "Path to configuration file",
				Destination: &configFile,
				Sources:     cli.EnvVars("CONFIG"),
			},

			// Server settings
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "Server host",
				Sources: sources("HOST", "server.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				Sources: sources("PORT", "server.port", tomlSrc),
			},

			// SMTP relay
			&cli.StringFlag{
				Name:    "smtp-host",
				Value:   "smtp.gmail.com",
				Usage:   "SMTP relay host",
				Sources: sources("SMTP_HOST", "smtp.host", tomlSrc),
			},
			&cli.IntFlag{
				Name:    "smtp-port",
				Value:   587,
				Usage:   "SMTP relay port (STARTTLS)",
				Sources: sources("SMTP_PORT", "smtp.port", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "smtp-credentials",
				Value:   "assets/email_config.json",
				Usage:   "Path to the sender credentials JSON file",
				Sources: sources("SMTP_CREDENTIALS", "smtp.credentials_file", tomlSrc),
			},

			// User store
			&cli.StringFlag{
				Name:    "store-backend",
				Value:   "json",
				Usage:   "User store backend: json, sqlite",
				Sources: sources("STORE_BACKEND", "store.backend", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "store-path",
				Value:   "assets/users_db.json",
				Usage:   "Path to the JSON user store",
				Sources: sources("STORE_PATH", "store.path", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "store-dsn",
				Value:   "./data/users.db",
				Usage:   "SQLite DSN for the sqlite backend",
				Sources: sources("STORE_DSN", "store.dsn", tomlSrc),
			},

			// Flash cookie
			&cli.StringFlag{
				Name:    "flash-hash-key",
				Usage:   "Hex-encoded key for signing the flash cookie",
				Sources: sources("FLASH_HASH_KEY", "flash.hash_key", tomlSrc),
			},

			// Logging
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level: debug, info, warn, error",
				Sources: sources("LOG_LEVEL", "log.level", tomlSrc),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format: text, json",
				Sources: sources("LOG_FORMAT", "log.format", tomlSrc),
			},
		},
		Action: server.Run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
