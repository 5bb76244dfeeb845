package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/strugal/inventory-platform/internal/model"
)

// UserRecord is a user row including its password hash.
type UserRecord struct {
	model.User
	PasswordHash string
}

// UserRepository reads and writes users.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a repository over db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns the user named username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*UserRecord, error) {
	var rec UserRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash FROM users WHERE username = ?", username,
	).Scan(&rec.ID, &rec.Username, &rec.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &rec, nil
}

// EnsureUser inserts the user if no row with that username exists. It reports
// whether a row was created.
func (r *UserRepository) EnsureUser(ctx context.Context, username, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?) ON CONFLICT(username) DO NOTHING",
		username, passwordHash,
	)
	if err != nil {
		return false, fmt.Errorf("failed to ensure user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
