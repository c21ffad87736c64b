// Package authorizations stores provider credentials linked to users.
package authorizations

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Upsert inserts a or replaces the uid and token of the existing entry for
	// the same (UserID, Provider).
	Upsert(ctx context.Context, a *models.Authorization) error
	ListByUser(ctx context.Context, userID string) ([]models.Authorization, error)
	GetByProviderUID(ctx context.Context, provider, uid string) (*models.Authorization, error)
	Delete(ctx context.Context, userID, provider string) error
	// DeleteByUser removes every entry of userID and reports how many went.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}
