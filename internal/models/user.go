// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/pixlovarr/internal/dbinterface"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrStatusConflict is returned when a status transition loses the
	// race against another admin action. Callers treat it as a no-op.
	ErrStatusConflict = errors.New("user status changed concurrently")
)

// UserStatus is the membership state of a chat user. A user is in
// exactly one state at a time.
type UserStatus string

const (
	StatusNew     UserStatus = "new"
	StatusAllowed UserStatus = "allowed"
	StatusBlocked UserStatus = "blocked"
)

func ParseUserStatus(value string) (UserStatus, error) {
	switch UserStatus(strings.ToLower(value)) {
	case StatusNew:
		return StatusNew, nil
	case StatusAllowed:
		return StatusAllowed, nil
	case StatusBlocked:
		return StatusBlocked, nil
	default:
		return "", fmt.Errorf("invalid user status: %s (must be 'new', 'allowed' or 'blocked')", value)
	}
}

// User is a chat platform user known to the bot.
type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Username  string     `json:"username"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DisplayName returns the name shown in admin listings and history.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = u.ID
	}
	return name
}

type UserStore struct {
	db dbinterface.Querier
}

func NewUserStore(db dbinterface.Querier) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user in the given status. Inserting an existing id
// is an error; use Get first to decide.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if _, err := ParseUserStatus(string(user.Status)); err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, first_name, last_name, username, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username, string(user.Status),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("user %s already exists: %w", user.ID, err)
		}
		if isCheckConstraintError(err) {
			return fmt.Errorf("invalid user status %q: %w", user.Status, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, first_name, last_name, username, status, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	user := &User{}
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Username,
		&status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Status = UserStatus(status)
	return user, nil
}

// ListByStatus returns users in the given status ordered by first name.
func (s *UserStore) ListByStatus(ctx context.Context, status UserStatus) ([]*User, error) {
	query := `
		SELECT id, first_name, last_name, username, status, created_at, updated_at
		FROM users
		WHERE status = ?
		ORDER BY first_name COLLATE NOCASE, id
	`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		var st string
		if err := rows.Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Username,
			&st, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Status = UserStatus(st)
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetStatus moves a user from status `from` to status `to`. The guard
// on the previous status makes the transition atomic: when the row has
// already left `from`, no rows match and ErrStatusConflict is returned
// without touching the other states.
func (s *UserStore) SetStatus(ctx context.Context, id string, from, to UserStatus) error {
	query := `
		UPDATE users
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`
	result, err := s.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.Get(ctx, id); errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

// HasStatus reports whether the user exists in the given status.
func (s *UserStore) HasStatus(ctx context.Context, id string, status UserStatus) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ? AND status = ?",
		id, string(status),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user status: %w", err)
	}
	return count > 0, nil
}
