package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Tables are the tables the schema creates.
var Tables = []string{"users", "files", "posts", "post_files", "audit_events"}

const tableExistsQuery = `
	SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name = $1
	)`

// Migrate applies the schema in one transaction. Every statement is idempotent,
// so running it against an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return errFailedApplySchema(err)
		}
		return nil
	})
}

// MissingTables returns the entries of Tables absent from the public schema.
func MissingTables(ctx context.Context, db *sql.DB) ([]string, error) {
	var missing []string
	for _, table := range Tables {
		var exists bool
		if err := db.QueryRowContext(ctx, tableExistsQuery, table).Scan(&exists); err != nil {
			return nil, fmt.Errorf(errFailedCheckTableFmt, table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
