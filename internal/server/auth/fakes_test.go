package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// fakeUsers is a UserStore keyed by username, id and api key. It records
// which lookups were made.
type fakeUsers struct {
	byName map[string]*models.User
	byID   map[string]*models.User
	byKey  map[string]*models.User
	err    error

	calls     []string
	successes int
	failures  int
	bookErr   error
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byName: map[string]*models.User{}, byID: map[string]*models.User{}, byKey: map[string]*models.User{}}
	for _, u := range users {
		f.byName[u.Username] = u
		f.byID[u.ID] = u
		if u.APIKey != "" {
			f.byKey[u.APIKey] = u
		}
	}
	return f
}

func (f *fakeUsers) find(m map[string]*models.User, k, call string) (*models.User, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	u, ok := m[k]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindForSession(ctx context.Context, identifier string) (*models.User, error) {
	return f.find(f.byName, models.NormalizeUsername(identifier), "session")
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.find(f.byID, id, "id")
}

func (f *fakeUsers) FindByAPIKey(ctx context.Context, key string) (*models.User, error) {
	return f.find(f.byKey, key, "api_key")
}

func (f *fakeUsers) RecordSuccess(ctx context.Context, user *models.User, ip string) error {
	f.successes++
	return f.bookErr
}

func (f *fakeUsers) RecordFailure(ctx context.Context, user *models.User) error {
	f.failures++
	return f.bookErr
}

var errStoreDown = errors.New("store down")
