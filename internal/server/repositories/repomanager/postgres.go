// Package repomanager hands out repositories bound to a connection or a
// transaction, and owns the database lifecycle: opening, migrating, closing.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/migrations"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const driverName = "pgx"

// PostgresRepositoryManager is the RepositoryManager used in production.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager wraps an already opened database.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

// OpenPostgres opens dsn and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX { return m.db }

func (m *PostgresRepositoryManager) Users(q dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(q)
}

func (m *PostgresRepositoryManager) Tasks(q dbx.DBTX) tasks.Repository {
	return tasks.NewPostgresRepository(q)
}

func (m *PostgresRepositoryManager) Messages(q dbx.DBTX) messages.Repository {
	return messages.NewPostgresRepository(q)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// migrateUp applies pending migrations; replaced in tests.
var migrateUp = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// RunMigrations brings the schema up to the latest embedded version.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := migrateUp(ctx, m.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
