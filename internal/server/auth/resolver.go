package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
)

// Method is the path a session was authenticated by.
type Method string

const (
	MethodNone     Method = ""
	MethodPassword Method = "password"
	MethodAPIKey   Method = "api_key"
	MethodToken    Method = "token"
	// MethodDirect marks a session signed in by Session.Create.
	MethodDirect Method = "direct"
)

func (m Method) String() string {
	if m == MethodNone {
		return "none"
	}
	return string(m)
}

// persistable methods are written to the session store on Save.
func (m Method) persistable() bool {
	return m == MethodPassword || m == MethodToken || m == MethodDirect
}

// UserStore is what the session layer needs from the user records.
// services.UserService implements it.
type UserStore interface {
	FindForSession(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByAPIKey(ctx context.Context, key string) (*models.User, error)
	RecordSuccess(ctx context.Context, user *models.User, ip string) error
	RecordFailure(ctx context.Context, user *models.User) error
}

// Candidate is the outcome of resolving one request's credentials. User is
// nil when the identifier matched nobody; Method is MethodNone when no
// credentials were submitted at all.
type Candidate struct {
	Method     Method
	User       *models.User
	Credential string
	// Untrusted is set when a persisted token was present but failed
	// verification or has expired.
	Untrusted bool
}

// Options toggle optional authentication paths.
type Options struct {
	APIKeyEnabled bool
}

// Resolver picks the single authentication path for a request:
//
//  1. api_key, when API keys are enabled and one was submitted
//  2. a persisted token, from the key parameter or else the session store
//  3. username and password
//
// Once a path is chosen the others are not tried.
type Resolver struct {
	users UserStore
	opts  Options
}

func NewResolver(users UserStore, opts Options) *Resolver {
	return &Resolver{users: users, opts: opts}
}

// Resolve returns an error only for store failures. store may be nil.
func (r *Resolver) Resolve(ctx context.Context, params Params, store sessionstore.Store) (*Candidate, error) {
	if r.opts.APIKeyEnabled {
		if key := params.APIKey(); key != "" {
			return r.lookup(ctx, MethodAPIKey, key, func() (*models.User, error) {
				return r.users.FindByAPIKey(ctx, key)
			})
		}
	}

	ser, err := r.persisted(ctx, params, store)
	switch {
	case sessionstore.Untrusted(err):
		return &Candidate{Method: MethodToken, Untrusted: true}, nil
	case err != nil:
		return nil, err
	case ser != nil:
		return r.lookup(ctx, MethodToken, ser.Token, func() (*models.User, error) {
			return r.users.FindByID(ctx, ser.UserID)
		})
	}

	if params.hasPasswordCredentials() {
		return r.lookup(ctx, MethodPassword, params.Password(), func() (*models.User, error) {
			return r.users.FindForSession(ctx, params.Username())
		})
	}

	return &Candidate{Method: MethodNone}, nil
}

func (r *Resolver) persisted(ctx context.Context, params Params, store sessionstore.Store) (*sessionstore.Serialized, error) {
	if key := params.Key(); key != "" {
		return sessionstore.Parse(key)
	}
	if store == nil {
		return nil, nil
	}
	return store.Read(ctx)
}

func (r *Resolver) lookup(ctx context.Context, m Method, credential string, find func() (*models.User, error)) (*Candidate, error) {
	c := &Candidate{Method: m, Credential: credential}

	user, err := find()
	if errors.Is(err, common.ErrorNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	c.User = user
	return c, nil
}
