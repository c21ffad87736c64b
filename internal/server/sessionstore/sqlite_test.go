package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLiteBackend(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackend_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	got, err := b.Load(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, b.Save(ctx, "sid", &jim, time.Hour))
	got, err = b.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, jim, *got)

	other := Serialized{UserID: "u-2", Token: "t-2"}
	require.NoError(t, b.Save(ctx, "sid", &other, time.Hour), "upsert on same id")
	got, err = b.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, other, *got)

	require.NoError(t, b.Delete(ctx, "sid"))
	got, err = b.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)
	now := time.Unix(1_800_000_000, 0)
	b.now = func() time.Time { return now }

	require.NoError(t, b.Save(ctx, "short", &jim, time.Minute))
	require.NoError(t, b.Save(ctx, "long", &jim, time.Hour))
	require.NoError(t, b.Save(ctx, "forever", &jim, 0))

	now = now.Add(2 * time.Minute)
	got, err := b.Load(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)

	now = now.Add(2 * time.Hour)
	n, err := b.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = b.Load(ctx, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLiteBackend_CorruptValue(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	_, err := b.db.ExecContext(ctx, `INSERT INTO sessions (id, value, expires_at) VALUES ('bad', 'no-separator', 0)`)
	require.NoError(t, err)

	_, err = b.Load(ctx, "bad")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSQLiteBackend_MigrateIsIdempotent(t *testing.T) {
	b := openTestSQLite(t)
	require.NoError(t, b.Migrate(context.Background()))
}

func TestSQLiteBackend_ClosedDB(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLiteBackend(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = b.Load(ctx, "sid")
	assert.Error(t, err)
	assert.Error(t, b.Save(ctx, "sid", &jim, 0))
	assert.Error(t, b.Delete(ctx, "sid"))
}
