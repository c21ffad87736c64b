package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteBackend stores records in a sessions table. expires_at is unix
// seconds; 0 means no expiry.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteBackend opens dsn with the modernc driver and migrates it.
func OpenSQLiteBackend(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	b := NewSQLiteBackend(db)
	if err := b.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db, now: time.Now}
}

// Migrate applies the embedded migrations.
func (b *SQLiteBackend) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, b.db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("session migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("session migrations: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context, id string) (*Serialized, error) {
	var value string
	var expires int64
	err := b.db.QueryRowContext(ctx, `SELECT value, expires_at FROM sessions WHERE id = ?`, id).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", shortID(id), err)
	}

	if expires != 0 && b.now().Unix() >= expires {
		if err := b.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	ser, err := Parse(value)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return ser, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, id string, s *Serialized, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = b.now().Add(ttl).Unix()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO sessions (id, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, id, s.String(), expires)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", shortID(id), err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", shortID(id), err)
	}
	return nil
}

// Sweep removes expired rows.
func (b *SQLiteBackend) Sweep(ctx context.Context) (int, error) {
	res, err := b.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <> 0 AND expires_at <= ?`, b.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// shortID keeps session ids out of error messages.
func shortID(id string) string {
	if len(id) > 6 {
		return id[:6] + "…"
	}
	return id
}
