package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
)

const sessionIDLength = 48

// Backend holds session records keyed by opaque id. Load returns (nil, nil)
// for unknown or expired ids.
type Backend interface {
	Load(ctx context.Context, id string) (*Serialized, error)
	Save(ctx context.Context, id string, s *Serialized, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// BackendStore keeps an opaque id in the carrier and the record in a
// Backend. Every Write issues a fresh id and drops the previous record.
type BackendStore struct {
	carrier Carrier
	backend Backend
	ttl     time.Duration
	ids     cryptox.TokenSource
}

func NewBackendStore(c Carrier, b Backend, ttl time.Duration, ids cryptox.TokenSource) *BackendStore {
	return &BackendStore{carrier: c, backend: b, ttl: ttl, ids: ids}
}

func (s *BackendStore) Read(ctx context.Context) (*Serialized, error) {
	id := s.carrier.Get(keyName())
	if id == "" {
		return nil, nil
	}
	ser, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return ser, nil
}

func (s *BackendStore) Write(ctx context.Context, ser *Serialized) error {
	old := s.carrier.Get(keyName())
	id := s.ids.Token(sessionIDLength)

	if err := s.backend.Save(ctx, id, ser, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if old != "" && old != id {
		if err := s.backend.Delete(ctx, old); err != nil {
			return fmt.Errorf("drop previous session: %w", err)
		}
	}
	s.carrier.Set(keyName(), id)
	return nil
}

func (s *BackendStore) Clear(ctx context.Context) error {
	id := s.carrier.Get(keyName())
	s.carrier.Del(keyName())
	if id == "" {
		return nil
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
