// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Command useradd adds a user record to the user store. It exists for
// operators; the recovery service itself never writes the store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"codeberg.org/oliverandrich/recovery-service/internal/config"
	"codeberg.org/oliverandrich/recovery-service/internal/directory"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cmd := &cli.Command{
		Name:      "useradd",
		Usage:     "Add a user to the user store",
		ArgsUsage: "USERNAME EMAIL PASSWORD",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store-backend",
				Value:   "json",
				Usage:   "User store backend: json, sqlite",
				Sources: cli.EnvVars("STORE_BACKEND"),
			},
			&cli.StringFlag{
				Name:    "store-path",
				Value:   "assets/users_db.json",
				Usage:   "Path to the JSON user store",
				Sources: cli.EnvVars("STORE_PATH"),
			},
			&cli.StringFlag{
				Name:    "store-dsn",
				Value:   "./data/users.db",
				Usage:   "SQLite DSN for the sqlite backend",
				Sources: cli.EnvVars("STORE_DSN"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args()
	if args.Len() != 3 {
		return errors.New("expected exactly three arguments: USERNAME EMAIL PASSWORD")
	}
	username, email, password := args.Get(0), args.Get(1), args.Get(2)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	rec := directory.UserRecord{
		Email:        directory.NormalizeEmail(email),
		PasswordHash: string(hash),
	}

	switch cmd.String("store-backend") {
	case config.StoreBackendSQLite:
		store, err := directory.OpenSQLite(cmd.String("store-dsn"))
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.AddUser(ctx, username, rec); err != nil {
			return err
		}
	case config.StoreBackendJSON:
		if err := addToJSONStore(cmd.String("store-path"), username, rec); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown store backend %q", cmd.String("store-backend"))
	}

	fmt.Printf("added user %q\n", username)
	return nil
}

// addToJSONStore reads the store file, inserts the record, and writes the
// file back. A missing file starts an empty store.
func addToJSONStore(path, username string, rec directory.UserRecord) error {
	if err := validate(username, rec); err != nil {
		return err
	}

	users := make(map[string]directory.UserRecord)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &users); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// new store
	default:
		return err
	}

	if _, exists := users[username]; exists {
		return fmt.Errorf("user %q already exists", username)
	}
	users[username] = rec

	out, err := json.MarshalIndent(users, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o600)
}

func validate(username string, rec directory.UserRecord) error {
	if username == "" {
		return errors.New("username must not be empty")
	}
	if !directory.ValidEmail(rec.Email) {
		return fmt.Errorf("invalid email format: %q", rec.Email)
	}
	return nil
}
