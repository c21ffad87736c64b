// Package users stores user records.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the user record store. Lookups return common.ErrorNotFound
// when nothing matches; Create and Update return common.ErrorAlreadyExists
// on a uniqueness conflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmailHash(ctx context.Context, hash string) (*models.User, error)
	GetByAPIKey(ctx context.Context, key string) (*models.User, error)

	// RecordSuccess and RecordFailure bump the session counters atomically and
	// return the new value.
	RecordSuccess(ctx context.Context, id, ip string, at time.Time) (int64, error)
	RecordFailure(ctx context.Context, id string) (int64, error)
}
