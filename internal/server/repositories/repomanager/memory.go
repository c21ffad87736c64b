package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authorizations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps all records in process memory. The DBTX
// arguments are ignored; WithTx only serializes callers and cannot roll
// back.
type MemoryRepositoryManager struct {
	mu             sync.Mutex
	users          *users.MemoryRepository
	authorizations *authorizations.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:          users.NewMemoryRepository(),
		authorizations: authorizations.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Authorizations(dbx.DBTX) authorizations.Repository {
	return m.authorizations
}

func (m *MemoryRepositoryManager) Close() error { return nil }
