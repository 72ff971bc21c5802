// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dbinterface provides the database interface shared by stores.
// It has no dependencies so it can be imported by both the database
// implementation and the model stores without cycles.
package dbinterface

import (
	"context"
	"database/sql"
)

// Querier is the interface stores use for database operations.
// It is implemented by *sql.DB, *sql.Tx, and *database.DB.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
