// Package models defines the server-side records persisted by the user store.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
)

// User is an account that can open sessions.
type User struct {
	ID               string
	Email            string
	EmailHash        string
	Username         string
	PasswordDigest   string
	Active           bool
	APIKey           string
	PersistenceToken string

	SessionCount    int64
	FailedAuthCount int64
	LastSessionIP   string
	LastSessionAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Authorizations []Authorization

	pending map[string]ProviderAttributes
}

// NormalizeUsername lower-cases and trims a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *User) SetUsername(s string) {
	u.Username = NormalizeUsername(s)
}

// SetEmail stores the normalized address together with its lookup hash.
func (u *User) SetEmail(s string) {
	u.Email = cryptox.NormalizeEmail(s)
	u.EmailHash = cryptox.EmailHash(u.Email)
}

// Attribute names accepted by SetAttribute and Attribute.
const (
	AttrEmail           = "email"
	AttrUsername        = "username"
	AttrActive          = "active"
	AttrAPIKey          = "api_key"
	AttrSessionCount    = "session_count"
	AttrFailedAuthCount = "failed_auth_count"
	AttrLastSessionIP   = "last_session_ip"
)

// SetAttribute assigns a named attribute from its string form. Unknown names
// return common.ErrUnknownAttribute; read-only counters return
// common.ErrForbiddenAttribute.
func (u *User) SetAttribute(name, value string) error {
	switch name {
	case AttrEmail:
		u.SetEmail(value)
	case AttrUsername:
		u.SetUsername(value)
	case AttrActive:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: active must be a boolean", common.ErrorValidation)
		}
		u.Active = b
	case AttrAPIKey:
		u.APIKey = value
	case AttrSessionCount, AttrFailedAuthCount, AttrLastSessionIP:
		return fmt.Errorf("%w: %s", common.ErrForbiddenAttribute, name)
	default:
		return fmt.Errorf("%w: %s", common.ErrUnknownAttribute, name)
	}
	return nil
}

// Attribute returns the string form of a named attribute.
func (u *User) Attribute(name string) (string, error) {
	switch name {
	case AttrEmail:
		return u.Email, nil
	case AttrUsername:
		return u.Username, nil
	case AttrActive:
		return strconv.FormatBool(u.Active), nil
	case AttrAPIKey:
		return u.APIKey, nil
	case AttrSessionCount:
		return strconv.FormatInt(u.SessionCount, 10), nil
	case AttrFailedAuthCount:
		return strconv.FormatInt(u.FailedAuthCount, 10), nil
	case AttrLastSessionIP:
		return u.LastSessionIP, nil
	}
	return "", fmt.Errorf("%w: %s", common.ErrUnknownAttribute, name)
}

// HasPassword reports whether a password digest is set.
func (u *User) HasPassword() bool {
	return u.PasswordDigest != ""
}

// ValidForSession reports whether the user may hold a session at all.
func (u *User) ValidForSession() bool {
	return u != nil && u.ID != "" && u.Active
}

// Provider returns the linked credential for name, if any.
func (u *User) Provider(name string) (Authorization, bool) {
	for _, a := range u.Authorizations {
		if a.Provider == name {
			return a, true
		}
	}
	return Authorization{}, false
}

// HasProvider reports whether a credential for name is linked.
func (u *User) HasProvider(name string) bool {
	_, ok := u.Provider(name)
	return ok
}

// SetProviderAttributes stages a provider linkage. Nothing is validated or
// written until the user is saved. Setting the same provider twice keeps the
// last value.
func (u *User) SetProviderAttributes(provider string, attrs ProviderAttributes) {
	if u.pending == nil {
		u.pending = make(map[string]ProviderAttributes)
	}
	u.pending[provider] = attrs
}

// PendingProviders returns the staged linkages keyed by provider name.
func (u *User) PendingProviders() map[string]ProviderAttributes {
	return u.pending
}

func (u *User) ClearPendingProviders() {
	u.pending = nil
}
