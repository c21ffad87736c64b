package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in a map. Values are copied in and out so
// callers never share a record.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.users[user.ID]; ok {
		return nil, fmt.Errorf("%w: users_pkey", common.ErrorAlreadyExists)
	}
	if err := r.checkUnique(user); err != nil {
		return nil, err
	}

	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = stored(user)
	return user, nil
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}

	cur.Email, cur.EmailHash, cur.Username = user.Email, user.EmailHash, user.Username
	cur.PasswordDigest, cur.Active, cur.APIKey = user.PasswordDigest, user.Active, user.APIKey
	cur.PersistenceToken = user.PersistenceToken
	cur.UpdatedAt = r.now()
	user.UpdatedAt = cur.UpdatedAt

	r.users[user.ID] = cur
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *MemoryRepository) GetByEmailHash(ctx context.Context, hash string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.EmailHash == hash })
}

func (r *MemoryRepository) GetByAPIKey(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, common.ErrorNotFound
	}
	return r.find(func(u *models.User) bool { return u.APIKey == key })
}

func (r *MemoryRepository) RecordSuccess(ctx context.Context, id, ip string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.SessionCount++
	u.LastSessionIP = ip
	u.LastSessionAt = &at
	r.users[id] = u
	return u.SessionCount, nil
}

func (r *MemoryRepository) RecordFailure(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.FailedAuthCount++
	r.users[id] = u
	return u.FailedAuthCount, nil
}

func (r *MemoryRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

// checkUnique must be called with the write lock held.
func (r *MemoryRepository) checkUnique(user *models.User) error {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		switch {
		case u.Username == user.Username:
			return fmt.Errorf("%w: users_username_key", common.ErrorAlreadyExists)
		case u.EmailHash == user.EmailHash:
			return fmt.Errorf("%w: users_email_hash_key", common.ErrorAlreadyExists)
		case user.APIKey != "" && u.APIKey == user.APIKey:
			return fmt.Errorf("%w: users_api_key_idx", common.ErrorAlreadyExists)
		}
	}
	return nil
}

// stored strips fields that live in other tables.
func stored(user *models.User) models.User {
	u := *user
	u.Authorizations = nil
	u.ClearPendingProviders()
	return u
}
