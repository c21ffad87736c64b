package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
)

// Kind names a session storage implementation.
type Kind string

const (
	KindToken  Kind = "token"
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
)

// Kinds lists the supported storage kinds.
var Kinds = []Kind{KindToken, KindMemory, KindSQLite, KindRedis}

// Options select and configure the storage.
type Options struct {
	Kind       Kind
	Secret     []byte
	TTL        time.Duration
	SQLitePath string
	Redis      RedisOptions
	IDs        cryptox.TokenSource
}

// Factory binds Stores to request carriers. It is created once at startup.
type Factory struct {
	kind    Kind
	secret  []byte
	ttl     time.Duration
	ids     cryptox.TokenSource
	backend Backend
}

// NewFactory opens the backend for opts.Kind.
func NewFactory(ctx context.Context, opts Options) (*Factory, error) {
	f := &Factory{kind: opts.Kind, secret: opts.Secret, ttl: opts.TTL, ids: opts.IDs}
	if f.ids == nil {
		f.ids = cryptox.Default
	}

	var err error
	switch opts.Kind {
	case KindToken:
		if len(opts.Secret) == 0 {
			return nil, fmt.Errorf("token session storage needs a secret")
		}
	case KindMemory:
		f.backend = NewMemoryBackend()
	case KindSQLite:
		f.backend, err = OpenSQLiteBackend(ctx, opts.SQLitePath)
	case KindRedis:
		f.backend, err = OpenRedisBackend(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedStorage, opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewFactoryWithBackend is used when the backend is built elsewhere.
func NewFactoryWithBackend(kind Kind, b Backend, ttl time.Duration, ids cryptox.TokenSource) *Factory {
	return &Factory{kind: kind, backend: b, ttl: ttl, ids: ids}
}

func (f *Factory) Kind() Kind { return f.kind }

// Store returns the Store for one request.
func (f *Factory) Store(c Carrier) Store {
	if f.backend == nil {
		return NewTokenStore(c, f.secret, f.ttl)
	}
	return NewBackendStore(c, f.backend, f.ttl, f.ids)
}

// Sweep drops expired records where the backend needs it.
func (f *Factory) Sweep(ctx context.Context) (int, error) {
	switch b := f.backend.(type) {
	case *MemoryBackend:
		return b.Sweep(), nil
	case *SQLiteBackend:
		return b.Sweep(ctx)
	}
	return 0, nil
}

func (f *Factory) Close() error {
	if f.backend == nil {
		return nil
	}
	return f.backend.Close()
}
