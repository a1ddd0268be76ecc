package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const sessionRowID = 1

// SQLBackend keeps the session as a single row of the sessions table.
type SQLBackend struct {
	db *sqlx.DB
}

// NewSQLBackend creates the sessions table if needed.
func NewSQLBackend(ctx context.Context, db *sqlx.DB) (*SQLBackend, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY,
		token VARCHAR(2048) NOT NULL,
		username VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("db.ExecContext(create sessions) > %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Load(ctx context.Context) (Session, error) {
	var s Session
	err := b.db.GetContext(ctx, &s, "SELECT token, username, role FROM sessions WHERE id = ?", sessionRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("db.GetContext(session) > %w", err)
	}
	return s, nil
}

func (b *SQLBackend) Save(ctx context.Context, s Session) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionRowID); err != nil {
		return fmt.Errorf("tx.ExecContext(delete session) > %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, token, username, role) VALUES (?, ?, ?, ?)",
		sessionRowID, s.Token, s.Username, s.Role); err != nil {
		return fmt.Errorf("tx.ExecContext(insert session) > %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit() > %w", err)
	}
	return nil
}

func (b *SQLBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionRowID); err != nil {
		return fmt.Errorf("db.ExecContext(delete session) > %w", err)
	}
	return nil
}
