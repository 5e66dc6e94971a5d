// Package memory is an in-process RepositoryManager used when the server is
// started without a database and by service tests.
package memory

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
)

// Store keeps all rows in maps guarded by mu. WithTx serializes
// transactions with txMu; there is no rollback, so transactional callers
// must check before they write.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users    map[string]*models.User
	tasks    map[string]*models.Task
	messages []*models.Message
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*models.User),
		tasks: make(map[string]*models.Task),
	}
}

func (s *Store) RunMigrations(ctx context.Context) error { return nil }

// Conn returns nil; the memory repositories ignore their handle.
func (s *Store) Conn() dbx.DBTX { return nil }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, nil)
}

func (s *Store) Close() error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository       { return &userRepo{s: s} }
func (s *Store) Tasks(dbx.DBTX) tasks.Repository       { return &taskRepo{s: s} }
func (s *Store) Messages(dbx.DBTX) messages.Repository { return &messageRepo{s: s} }
