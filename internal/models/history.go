// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"fmt"
	"time"

	"github.com/autobrr/pixlovarr/internal/dbinterface"
)

// HistoryLimit caps the rolling command history.
const HistoryLimit = 50

// HistoryEntry is one recorded bot command.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Command    string    `json:"command"`
	ExecutedAt time.Time `json:"executed_at"`
}

type HistoryStore struct {
	db dbinterface.Querier
}

func NewHistoryStore(db dbinterface.Querier) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record appends a command and trims the table back to HistoryLimit,
// dropping the oldest entries first.
func (s *HistoryStore) Record(ctx context.Context, userID, userName, command string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO command_history (user_id, user_name, command) VALUES (?, ?, ?)",
		userID, userName, command,
	); err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM command_history
		WHERE id NOT IN (
			SELECT id FROM command_history ORDER BY id DESC LIMIT ?
		)
	`, HistoryLimit); err != nil {
		return fmt.Errorf("failed to trim command history: %w", err)
	}
	return nil
}

// List returns history entries oldest first.
func (s *HistoryStore) List(ctx context.Context) ([]*HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_name, command, executed_at
		FROM command_history
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list command history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Command, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
