package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
)

// Manager builds Sessions. One Manager is shared by all requests.
type Manager struct {
	users         UserStore
	resolver      *Resolver
	authenticator *Authenticator
	metrics       *Metrics
	log           logging.Logger
}

// NewManager wires the session layer. metrics may be nil.
func NewManager(users UserStore, hasher *cryptox.PasswordHasher, opts Options, metrics *Metrics, log logging.Logger) *Manager {
	return &Manager{
		users:         users,
		resolver:      NewResolver(users, opts),
		authenticator: NewAuthenticator(hasher, users),
		metrics:       metrics,
		log:           log.With("module", "auth"),
	}
}

// New returns a session restored from params or the store.
func (m *Manager) New(params Params, store sessionstore.Store, ip string) *Session {
	return m.session(params, store, ip, true)
}

// ForSignIn returns a session that ignores what is already in the store, so
// the submitted credentials are what gets checked.
func (m *Manager) ForSignIn(params Params, store sessionstore.Store, ip string) *Session {
	return m.session(params, store, ip, false)
}

func (m *Manager) session(params Params, store sessionstore.Store, ip string, readStore bool) *Session {
	if params == nil {
		params = Params{}
	}
	return &Session{
		params:        params,
		store:         store,
		ip:            ip,
		readStore:     readStore,
		resolver:      m.resolver,
		authenticator: m.authenticator,
		metrics:       m.metrics,
		log:           m.log,
	}
}

// Authorize requires a valid session whose user still exists and is active
// at the time of the call. It returns the freshly loaded user.
func (m *Manager) Authorize(ctx context.Context, s *Session) (*models.User, error) {
	if !s.Valid(ctx) {
		if s.Err() != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, s.Err())
		}
		return nil, common.ErrorUnauthorized
	}

	fresh, err := m.users.FindByID(ctx, s.user.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !fresh.ValidForSession() {
		return nil, common.ErrorUnauthorized
	}
	if s.method == MethodToken && !cryptox.EqualSecret(fresh.PersistenceToken, s.user.PersistenceToken) {
		return nil, common.ErrorUnauthorized
	}
	return fresh, nil
}
