// Package repomanager vends the user-store repositories for a chosen
// backend and owns schema migrations and transaction scoping.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/authorizations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Conn is the non-transactional handle to pass to repository factories.
	Conn() dbx.DBTX
	// WithTx runs fn with a transactional handle.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Users(db dbx.DBTX) users.Repository
	Authorizations(db dbx.DBTX) authorizations.Repository

	Close() error
}

// Kind names a user-store backend.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMemory   Kind = "memory"
)

// New opens the manager for kind. dsn is ignored for the memory backend.
func New(kind Kind, dsn string) (RepositoryManager, error) {
	switch kind {
	case KindPostgres:
		return NewPostgresRepositoryManager(dsn)
	case KindMemory:
		return NewMemoryRepositoryManager(), nil
	}
	return nil, fmt.Errorf("unknown user store %q", kind)
}
