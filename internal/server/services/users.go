// Package services contains the server-side business logic. UserService
// owns the user lifecycle: signup, profile updates behind an allow-list,
// provider linking, destruction with cascade, and the lookups and counter
// bookkeeping the session layer relies on.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/providers"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

const (
	persistenceTokenLength = 64
	apiKeyLength           = 50
)

// Field names accepted by Update.
const (
	FieldEmail                = "email"
	FieldUsername             = "username"
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
)

// UpdatableFields is the allow-list for Update. Any other key is rejected
// with common.ErrForbiddenAttribute before anything is written.
var UpdatableFields = map[string]struct{}{
	FieldEmail:                {},
	FieldUsername:             {},
	FieldPassword:             {},
	FieldPasswordConfirmation: {},
}

// SignupInput is the payload for creating an account.
type SignupInput struct {
	Email                string `json:"email" validate:"required,email"`
	Username             string `json:"username" validate:"required"`
	Password             string `json:"password" validate:"required,min=4"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
}

// DroppedProvider is a staged provider link that failed validation and was
// not persisted.
type DroppedProvider struct {
	Provider string
	Reason   string
}

// SaveResult reports what Save did besides writing the user.
type SaveResult struct {
	Dropped []DroppedProvider
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.PasswordHasher
	tokens      cryptox.TokenSource
	providers   *providers.Registry
	sealer      *cryptox.Sealer
	validate    *validator.Validate
	log         logging.Logger
	now         func() time.Time
}

// NewUserService wires the service. sealer may be nil, in which case
// provider tokens are stored as given.
func NewUserService(
	m repomanager.RepositoryManager,
	hasher *cryptox.PasswordHasher,
	tokens cryptox.TokenSource,
	registry *providers.Registry,
	sealer *cryptox.Sealer,
	log logging.Logger,
) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		providers:   registry,
		sealer:      sealer,
		validate:    validator.New(),
		log:         log.With("module", "users"),
		now:         time.Now,
	}
}

// Signup validates in and creates an active user.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, describe(err))
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	user := &models.User{
		Active:           true,
		PasswordDigest:   digest,
		APIKey:           s.tokens.Token(apiKeyLength),
		PersistenceToken: s.tokens.Token(persistenceTokenLength),
	}
	user.SetEmail(in.Email)
	user.SetUsername(in.Username)

	user, err = s.repomanager.Users(s.repomanager.Conn()).Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// Update applies allow-listed profile fields and saves the user. A password
// change rotates the persistence token, which signs out persisted sessions.
func (s *UserService) Update(ctx context.Context, user *models.User, fields map[string]string) (*SaveResult, error) {
	for name := range fields {
		if _, ok := UpdatableFields[name]; !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrForbiddenAttribute, name)
		}
	}

	next := *user

	if v, ok := fields[FieldEmail]; ok {
		if err := s.validate.Var(strings.TrimSpace(v), "required,email"); err != nil {
			return nil, fmt.Errorf("%w: email is invalid", common.ErrorValidation)
		}
		next.SetEmail(v)
	}
	if v, ok := fields[FieldUsername]; ok {
		next.SetUsername(v)
		if next.Username == "" {
			return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
		}
	}
	if pw, ok := fields[FieldPassword]; ok {
		if pw != fields[FieldPasswordConfirmation] {
			return nil, fmt.Errorf("%w: password confirmation does not match", common.ErrorValidation)
		}
		digest, err := s.hasher.Hash(pw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		next.PasswordDigest = digest
		next.PersistenceToken = s.tokens.Token(persistenceTokenLength)
	}

	res, err := s.Save(ctx, &next)
	if err != nil {
		return nil, err
	}
	*user = next
	return res, nil
}

// Save writes user and its staged provider links in one transaction. Each
// staged link is validated on its own; an invalid one is dropped and
// reported in the result while the save itself still succeeds.
func (s *UserService) Save(ctx context.Context, user *models.User) (*SaveResult, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user has not been created", common.ErrorValidation)
	}

	res := &SaveResult{}
	pending := user.PendingProviders()

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Update(ctx, user); err != nil {
			return err
		}

		auths := s.repomanager.Authorizations(tx)
		for _, name := range names {
			attrs := pending[name]

			if reason := s.checkProvider(name, attrs); reason != "" {
				res.Dropped = append(res.Dropped, DroppedProvider{Provider: name, Reason: reason})
				continue
			}

			uid := strings.TrimSpace(attrs.UID)

			// a failed insert would abort the surrounding transaction, so
			// conflicts are checked up front
			owner, err := auths.GetByProviderUID(ctx, name, uid)
			switch {
			case err == nil && owner.UserID != user.ID:
				res.Dropped = append(res.Dropped, DroppedProvider{Provider: name, Reason: "uid is linked to another user"})
				continue
			case err != nil && !errors.Is(err, common.ErrorNotFound):
				return err
			}

			token, err := s.sealToken(attrs.Token)
			if err != nil {
				return err
			}

			a := &models.Authorization{UserID: user.ID, Provider: name, UID: uid, Token: token}
			if err := auths.Upsert(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.ClearPendingProviders()
	for _, d := range res.Dropped {
		s.log.Warn(ctx, "provider link dropped", "user_id", user.ID, "provider", d.Provider, "reason", d.Reason)
	}

	if len(names) > 0 {
		if err := s.LoadAuthorizations(ctx, user); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *UserService) checkProvider(name string, attrs models.ProviderAttributes) string {
	if !s.providers.Registered(name) {
		return "provider is not registered"
	}
	if attrs.Blank() {
		return "uid and token are required"
	}
	return ""
}

// SetProviderAttributes stages a link on user; it is validated and written
// by the next Save.
func (s *UserService) SetProviderAttributes(user *models.User, provider string, attrs models.ProviderAttributes) {
	user.SetProviderAttributes(strings.ToLower(strings.TrimSpace(provider)), attrs)
}

// LinkIdentity stages and saves a link from a completed OAuth exchange.
func (s *UserService) LinkIdentity(ctx context.Context, user *models.User, provider string, id *providers.Identity) (*SaveResult, error) {
	s.SetProviderAttributes(user, provider, models.ProviderAttributes{UID: id.UID, Token: id.Token})
	return s.Save(ctx, user)
}

// Destroy removes user and every linked provider credential. It returns how
// many credentials were removed.
func (s *UserService) Destroy(ctx context.Context, user *models.User) (int64, error) {
	var removed int64

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Authorizations(tx).DeleteByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		removed = n
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return 0, err
	}

	s.log.Info(ctx, "user destroyed", "user_id", user.ID, "authorizations", removed)
	user.Authorizations = nil
	return removed, nil
}

// FindForSession looks a user up by email when identifier contains "@",
// then by username. Matching ignores case and surrounding whitespace. Blank
// or unmatched input returns common.ErrorNotFound.
func (s *UserService) FindForSession(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Users(s.repomanager.Conn())
	if strings.Contains(identifier, "@") {
		u, err := repo.GetByEmailHash(ctx, cryptox.EmailHash(identifier))
		if !errors.Is(err, common.ErrorNotFound) {
			return u, err
		}
	}
	return repo.GetByUsername(ctx, models.NormalizeUsername(identifier))
}

func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.repomanager.Conn()).GetByID(ctx, id)
}

func (s *UserService) FindByAPIKey(ctx context.Context, key string) (*models.User, error) {
	if strings.TrimSpace(key) == "" {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.repomanager.Conn()).GetByAPIKey(ctx, key)
}

// FindByProvider returns the user linked to (provider, uid).
func (s *UserService) FindByProvider(ctx context.Context, provider, uid string) (*models.User, error) {
	a, err := s.repomanager.Authorizations(s.repomanager.Conn()).GetByProviderUID(ctx, provider, uid)
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, a.UserID)
}

// LoadAuthorizations fills user.Authorizations with opened tokens.
func (s *UserService) LoadAuthorizations(ctx context.Context, user *models.User) error {
	list, err := s.repomanager.Authorizations(s.repomanager.Conn()).ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for i := range list {
		tok, err := s.openToken(list[i].Token)
		if err != nil {
			return fmt.Errorf("provider %s: %w", list[i].Provider, err)
		}
		list[i].Token = tok
	}
	user.Authorizations = list
	return nil
}

// RecordSuccess counts a successful sign-in from ip.
func (s *UserService) RecordSuccess(ctx context.Context, user *models.User, ip string) error {
	at := s.now().UTC()
	n, err := s.repomanager.Users(s.repomanager.Conn()).RecordSuccess(ctx, user.ID, ip, at)
	if err != nil {
		return err
	}
	user.SessionCount = n
	user.LastSessionIP = ip
	user.LastSessionAt = &at
	return nil
}

// RecordFailure counts a rejected credential.
func (s *UserService) RecordFailure(ctx context.Context, user *models.User) error {
	n, err := s.repomanager.Users(s.repomanager.Conn()).RecordFailure(ctx, user.ID)
	if err != nil {
		return err
	}
	user.FailedAuthCount = n
	return nil
}

// CountAuthorizations is the number of linked provider credentials across
// all users.
func (s *UserService) CountAuthorizations(ctx context.Context) (int64, error) {
	return s.repomanager.Authorizations(s.repomanager.Conn()).Count(ctx)
}

func (s *UserService) sealToken(tok string) (string, error) {
	if s.sealer == nil {
		return tok, nil
	}
	return s.sealer.Seal(tok)
}

func (s *UserService) openToken(tok string) (string, error) {
	if s.sealer == nil {
		return tok, nil
	}
	return s.sealer.Open(tok)
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
