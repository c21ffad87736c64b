package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
)

// State is the validation state of a Session.
type State int

const (
	StateNew State = iota
	StateValidating
	StateValid
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateValidating:
		return "validating"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the authentication state of one request. It is not safe for
// concurrent use.
type Session struct {
	params    Params
	store     sessionstore.Store
	ip        string
	readStore bool

	resolver      *Resolver
	authenticator *Authenticator
	metrics       *Metrics
	log           logging.Logger

	state  State
	method Method
	user   *models.User
	err    error
}

// Valid validates the session on first call and returns the cached result
// afterwards.
func (s *Session) Valid(ctx context.Context) bool {
	if s.state == StateNew {
		s.validate(ctx)
	}
	return s.state == StateValid
}

// User is the authenticated user, or nil when the session is not valid.
func (s *Session) User(ctx context.Context) *models.User {
	if !s.Valid(ctx) {
		return nil
	}
	return s.user
}

// Err is the store error that made validation fail, if any.
func (s *Session) Err() error { return s.err }

func (s *Session) Method() Method   { return s.method }
func (s *Session) State() State     { return s.state }
func (s *Session) RemoteIP() string { return s.ip }

// Params returns the submitted parameters.
func (s *Session) Params() Params { return s.params }

func (s *Session) Get(name string) string { return s.params.Get(name) }

// Set assigns a parameter. Changing parameters after validation has no
// effect on the cached result.
func (s *Session) Set(name, value string) { s.params.Set(name, value) }

func (s *Session) validate(ctx context.Context) {
	s.state = StateValidating

	store := s.store
	if !s.readStore {
		store = nil
	}

	c, err := s.resolver.Resolve(ctx, s.params, store)
	if err != nil {
		s.err = err
		s.log.Error(ctx, "session lookup failed", "error", err)
		s.reject(OutcomeError)
		return
	}
	s.method = c.Method

	switch {
	case c.Method == MethodNone:
		s.reject(OutcomeNoCredentials)
		return
	case c.Untrusted:
		s.reject(OutcomeUntrusted)
		return
	case c.User == nil:
		s.decoy(c)
		s.reject(OutcomeNotFound)
		return
	case !c.User.ValidForSession():
		s.decoy(c)
		s.log.Info(ctx, "inactive user rejected", "user_id", c.User.ID, "method", c.Method.String())
		s.reject(OutcomeInactive)
		return
	}

	ok := s.authenticator.Authenticate(c.User, c.Method, c.Credential)
	if c.Method == MethodPassword {
		s.bookkeep(ctx, c.User, ok)
	}
	if !ok {
		s.log.Info(ctx, "credentials rejected", "user_id", c.User.ID, "method", c.Method.String())
		s.reject(OutcomeInvalid)
		return
	}

	s.user = c.User
	s.state = StateValid
	s.metrics.observe(s.method, OutcomeValid)
}

func (s *Session) decoy(c *Candidate) {
	if c.Method == MethodPassword {
		s.authenticator.Reject(c.Credential)
	}
}

// bookkeep updates the counters. A failure is logged and does not change
// the validation result.
func (s *Session) bookkeep(ctx context.Context, user *models.User, ok bool) {
	var err error
	if ok {
		err = s.authenticator.RecordSuccess(ctx, user, s.ip)
	} else {
		err = s.authenticator.RecordFailure(ctx, user)
	}
	if err != nil {
		s.log.Warn(ctx, "failed to record sign-in attempt", "user_id", user.ID, "error", err)
	}
}

func (s *Session) reject(outcome string) {
	s.user = nil
	s.state = StateInvalid
	s.metrics.observe(s.method, outcome)
}

// Save persists a valid session so later requests can restore it. It
// returns false without error when the session is invalid or was
// authenticated by a method that is never persisted.
func (s *Session) Save(ctx context.Context) (bool, error) {
	if !s.Valid(ctx) || !s.method.persistable() || s.store == nil {
		return false, nil
	}

	ser := &sessionstore.Serialized{UserID: s.user.ID, Token: s.user.PersistenceToken}
	if err := s.store.Write(ctx, ser); err != nil {
		return false, fmt.Errorf("persist session: %w", err)
	}
	return true, nil
}

// Create signs user in without checking credentials and persists the
// session. Counters are not touched.
func (s *Session) Create(ctx context.Context, user *models.User) error {
	if !user.ValidForSession() {
		return common.ErrorUnauthorized
	}

	s.user = user
	s.method = MethodDirect
	s.state = StateValid
	s.err = nil

	if _, err := s.Save(ctx); err != nil {
		return err
	}
	s.log.Info(ctx, "session created", "user_id", user.ID)
	return nil
}

// Destroy clears the persisted session. The session is left invalid with
// no user.
func (s *Session) Destroy(ctx context.Context) error {
	var id string
	if s.user != nil {
		id = s.user.ID
	}

	s.user = nil
	s.state = StateInvalid

	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if id != "" {
		s.log.Info(ctx, "session destroyed", "user_id", id)
	}
	return nil
}
