package authorizations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

type key struct {
	userID   string
	provider string
}

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[key]models.Authorization
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[key]models.Authorization)}
}

func (r *MemoryRepository) Upsert(ctx context.Context, a *models.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{a.UserID, a.Provider}
	for ok, other := range r.items {
		if ok != k && other.Provider == a.Provider && other.UID == a.UID {
			return fmt.Errorf("%w: authorizations_provider_uid_key", common.ErrorAlreadyExists)
		}
	}

	now := time.Now()
	if cur, ok := r.items[k]; ok {
		a.ID, a.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		a.ID, a.CreatedAt = uuid.NewString(), now
	}
	a.UpdatedAt = now
	r.items[k] = *a
	return nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]models.Authorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Authorization
	for k, a := range r.items {
		if k.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (r *MemoryRepository) GetByProviderUID(ctx context.Context, provider, uid string) (*models.Authorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.Provider == provider && a.UID == uid {
			out := a
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, provider}
	if _, ok := r.items[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, k)
	return nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k := range r.items {
		if k.userID == userID {
			delete(r.items, k)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
