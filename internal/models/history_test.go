// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupHistoryStore(t *testing.T) *HistoryStore {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.ExecContext(t.Context(), `
		CREATE TABLE command_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			command TEXT NOT NULL,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)

	return NewHistoryStore(newMockQuerier(sqlDB))
}

func TestHistoryStore_RecordAndList(t *testing.T) {
	t.Parallel()

	store := setupHistoryStore(t)
	ctx := t.Context()

	require.NoError(t, store.Record(ctx, "1", "Alice", "/help"))
	require.NoError(t, store.Record(ctx, "2", "Bob", "/ls movies"))

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/help", entries[0].Command)
	assert.Equal(t, "Bob", entries[1].UserName)
}

func TestHistoryStore_TrimsToLimit(t *testing.T) {
	t.Parallel()

	store := setupHistoryStore(t)
	ctx := t.Context()

	for i := 0; i < HistoryLimit+10; i++ {
		require.NoError(t, store.Record(ctx, "1", "Alice", fmt.Sprintf("/cmd %d", i)))
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, HistoryLimit)

	// oldest entries are gone
	assert.Equal(t, "/cmd 10", entries[0].Command)
	assert.Equal(t, fmt.Sprintf("/cmd %d", HistoryLimit+9), entries[len(entries)-1].Command)
}
