// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package directory

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/vinovest/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLiteStore is a Directory backed by a SQLite database with a users
// table mirroring the JSON store schema.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the SQLite store at dsn, runs pending
// migrations, and validates every stored record. A record violating the
// schema invariants fails the open with a *StoreError.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if !strings.HasPrefix(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &StoreError{Err: err}
		}
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(conn.DB); err != nil {
		_ = conn.Close()
		return nil, &StoreError{Err: err}
	}

	store := &SQLiteStore{db: conn}
	if err := store.validate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return store, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type userRow struct {
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
}

// validate applies the all-or-nothing schema check to every row.
func (s *SQLiteStore) validate(ctx context.Context) error {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT username, email, password_hash FROM users ORDER BY rowid`); err != nil {
		return &StoreError{Err: err}
	}
	for _, row := range rows {
		rec := UserRecord{Email: row.Email, PasswordHash: row.PasswordHash}
		if err := validateRecord(row.Username, rec); err != nil {
			return err
		}
	}
	return nil
}

// FindByEmail resolves the normalized email to a username. On duplicate
// normalized emails the lowest rowid (insertion order) wins.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (string, error) {
	var username string
	err := s.db.GetContext(ctx, &username,
		`SELECT username FROM users WHERE lower(trim(email)) = ? ORDER BY rowid LIMIT 1`,
		NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StoreError{Err: err}
	}
	return username, nil
}

// AddUser inserts a record after validating it. Used by the useradd
// maintenance command, not by the recovery flow.
func (s *SQLiteStore) AddUser(ctx context.Context, username string, rec UserRecord) error {
	if err := validateRecord(username, rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, rec.Email, rec.PasswordHash)
	if err != nil {
		return &StoreError{Username: username, Err: err}
	}
	return nil
}
