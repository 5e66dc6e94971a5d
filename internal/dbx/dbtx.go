// Package dbx holds the small database helpers shared by the repositories:
// the DBTX handle accepted by every repository method, transaction scoping,
// and placeholder building for variable-length IN lists.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. The transaction is committed when
// fn returns nil and rolled back otherwise. A panic in fn rolls back and is
// re-raised.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// Placeholders renders n positional parameters starting at $start,
// e.g. Placeholders(3, 2) == "$2, $3, $4".
func Placeholders(n, start int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

// Args converts a string slice to driver arguments, prefixed by head.
func Args(head []any, values []string) []any {
	out := make([]any, 0, len(head)+len(values))
	out = append(out, head...)
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
