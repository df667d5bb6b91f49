// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dbinterface decouples stores from the concrete database
// handle so both *sql.DB and *sql.Tx can back them.
package dbinterface

import (
	"context"
	"database/sql"
)

// Querier is the query surface stores operate on. *sql.DB, *sql.Tx
// and *database.DB all implement it.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
