package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the shared
// connection (Conn) or a transaction handle passed to a WithTx callback.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Close() error

	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Messages(db dbx.DBTX) messages.Repository
}
