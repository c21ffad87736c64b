package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewMemoryBackend()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Save(ctx, "a", &jim, time.Minute))
	require.NoError(t, b.Save(ctx, "b", &jim, 2*time.Minute))
	require.NoError(t, b.Save(ctx, "forever", &jim, 0))

	got, err := b.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, jim, *got)

	now = now.Add(time.Minute)
	got, err = b.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, b.Len())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, b.Sweep())

	got, err = b.Load(ctx, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got)
	require.NoError(t, b.Close())
}

func TestMemoryBackend_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Save(ctx, "a", &jim, 0))

	got, err := b.Load(ctx, "a")
	require.NoError(t, err)
	got.UserID = "other"

	again, err := b.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, jim.UserID, again.UserID)
}
