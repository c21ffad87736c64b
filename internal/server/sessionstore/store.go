// Package sessionstore persists the serialized session between requests.
//
// A Store is bound to one request through a Carrier, the transport-specific
// place (cookie, gRPC metadata) where the session key travels. The token
// store keeps the whole session in a signed JWT inside the carrier; the
// other stores keep an opaque id in the carrier and the record in a Backend.
package sessionstore

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Serialized is the persisted form of a session. Token is the user's
// persistence token at the time of sign-in.
type Serialized struct {
	UserID string
	Token  string
}

// String renders "token@user_id".
func (s Serialized) String() string {
	return s.Token + "@" + s.UserID
}

// Parse reads the "token@user_id" form.
func Parse(v string) (*Serialized, error) {
	tok, id, ok := strings.Cut(strings.TrimSpace(v), "@")
	if !ok || tok == "" || id == "" {
		return nil, common.ErrInvalidToken
	}
	return &Serialized{UserID: id, Token: tok}, nil
}

// Store reads and writes the session for one request. Read returns
// (nil, nil) when nothing is stored, and common.ErrInvalidToken or
// common.ErrTokenExpired when what is stored cannot be trusted.
type Store interface {
	Read(ctx context.Context) (*Serialized, error)
	Write(ctx context.Context, s *Serialized) error
	Clear(ctx context.Context) error
}

// Carrier is the per-request key/value slot a Store keeps its handle in.
type Carrier interface {
	Get(name string) string
	Set(name, value string)
	Del(name string)
}

// MapCarrier is an in-memory Carrier.
type MapCarrier map[string]string

func (m MapCarrier) Get(name string) string { return m[name] }
func (m MapCarrier) Set(name, value string) { m[name] = value }
func (m MapCarrier) Del(name string)        { delete(m, name) }

// Untrusted reports whether err means the stored value should be treated as
// absent.
func Untrusted(err error) bool {
	return errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired)
}

func keyName() string { return common.SessionKeyName }
