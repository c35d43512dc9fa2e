package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ha_location_proxy/internal/models"
)

var (
	// ErrUsernameTaken is returned by Create when the username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrSignUpClosed is returned by CreateFirst once any operator exists.
	ErrSignUpClosed = errors.New("sign-up is closed")
)

// UserSQLite stores API operators allowed to call the control API.
type UserSQLite struct {
	db *sql.DB
}

func NewUserSQLite(db *sql.DB) *UserSQLite {
	return &UserSQLite{db: db}
}

var _ Authorization = (*UserSQLite)(nil)

const (
	insertUserSQL           = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectUserByUsernameSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
	insertFirstUserSQL      = `INSERT INTO users (username, password_hash) SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM users)`
)

// Create inserts an operator and returns its ID.
func (r *UserSQLite) Create(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", username, ErrUsernameTaken)
		}
		return 0, fmt.Errorf("insert user %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for user %q: %w", username, err)
	}
	return int(id), nil
}

// CreateFirst inserts an operator only while the users table is empty. The
// check and the insert are one statement, so two racing callers cannot both win.
func (r *UserSQLite) CreateFirst(ctx context.Context, username, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertFirstUserSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert first user %q: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for user %q: %w", username, err)
	}
	if n == 0 {
		return 0, ErrSignUpClosed
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id for user %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) when no such operator exists.
func (r *UserSQLite) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, selectUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}

// isUniqueViolation matches the sqlite driver message; the driver exposes no
// portable error code through database/sql.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
