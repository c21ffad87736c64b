package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJim() *models.User {
	u := &models.User{Active: true}
	u.SetUsername("JimBob")
	u.SetEmail("jim@example.com")
	return u
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	u, err := r.Create(ctx, newJim())
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	byID, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jimbob", byID.Username)

	_, err = r.GetByUsername(ctx, "jimbob")
	require.NoError(t, err)
	_, err = r.GetByEmailHash(ctx, u.EmailHash)
	require.NoError(t, err)

	_, err = r.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.GetByAPIKey(ctx, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	u, err := r.Create(ctx, newJim())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Username = "mutated"

	again, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jimbob", again.Username)
}

func TestMemoryRepository_Unique(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	_, err := r.Create(ctx, newJim())
	require.NoError(t, err)

	dup := newJim()
	dup.SetEmail("other@example.com")
	_, err = r.Create(ctx, dup)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	dup = newJim()
	dup.SetUsername("other")
	_, err = r.Create(ctx, dup)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestMemoryRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	u, err := r.Create(ctx, newJim())
	require.NoError(t, err)

	u.APIKey = "k-1"
	require.NoError(t, r.Update(ctx, u))

	byKey, err := r.GetByAPIKey(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byKey.ID)

	require.NoError(t, r.Delete(ctx, u.ID))
	assert.ErrorIs(t, r.Delete(ctx, u.ID), common.ErrorNotFound)
	assert.ErrorIs(t, r.Update(ctx, u), common.ErrorNotFound)
}

func TestMemoryRepository_Counters(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	u, err := r.Create(ctx, newJim())
	require.NoError(t, err)

	at := time.Now()
	n, err := r.RecordSuccess(ctx, u.ID, "127.0.0.1", at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.RecordFailure(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SessionCount)
	assert.Equal(t, int64(1), got.FailedAuthCount)
	assert.Equal(t, "127.0.0.1", got.LastSessionIP)

	_, err = r.RecordFailure(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
