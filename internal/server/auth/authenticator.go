package auth

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Bookkeeper records the outcome of a credential check.
type Bookkeeper interface {
	RecordSuccess(ctx context.Context, user *models.User, ip string) error
	RecordFailure(ctx context.Context, user *models.User) error
}

// Authenticator checks credentials. It never writes; counting is a separate
// call to RecordSuccess or RecordFailure.
type Authenticator struct {
	hasher *cryptox.PasswordHasher
	book   Bookkeeper
	// decoy is a digest at the hasher's cost that no password matches.
	decoy  string
	verify func(digest, password string) bool
}

func NewAuthenticator(hasher *cryptox.PasswordHasher, book Bookkeeper) *Authenticator {
	a := &Authenticator{hasher: hasher, book: book, verify: hasher.Verify}
	a.decoy, _ = hasher.Hash(cryptox.Default.Token(decoyLength))
	return a
}

const decoyLength = 32

// Authenticate reports whether credential is valid for user over method.
// Unknown methods and a nil user are never valid.
func (a *Authenticator) Authenticate(user *models.User, method Method, credential string) bool {
	if user == nil {
		return false
	}

	switch method {
	case MethodPassword:
		if !user.HasPassword() {
			a.Reject(credential)
			return false
		}
		return a.verify(user.PasswordDigest, credential)
	case MethodAPIKey:
		return cryptox.EqualSecret(user.APIKey, credential)
	case MethodToken:
		return cryptox.EqualSecret(user.PersistenceToken, credential)
	default:
		return false
	}
}

// Reject spends one password comparison against the decoy digest, so a
// missing user takes as long to turn down as a wrong password.
func (a *Authenticator) Reject(password string) {
	a.verify(a.decoy, password)
}

func (a *Authenticator) RecordSuccess(ctx context.Context, user *models.User, ip string) error {
	return a.book.RecordSuccess(ctx, user, ip)
}

func (a *Authenticator) RecordFailure(ctx context.Context, user *models.User) error {
	return a.book.RecordFailure(ctx, user)
}
