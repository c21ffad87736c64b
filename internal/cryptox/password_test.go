package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("test")
	require.NoError(t, err)
	assert.NotEqual(t, "test", digest)

	assert.True(t, h.Verify(digest, "test"))
	assert.False(t, h.Verify(digest, "Test"))
	assert.False(t, h.Verify(digest, ""))
}

func TestPasswordHasher_TooShort(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost).Hash("abc")
	assert.Error(t, err)
}

func TestPasswordHasher_VerifyMissingOrMalformedDigest(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("", "test"))
	assert.False(t, h.Verify("not-a-bcrypt-digest", "test"))
}

func TestNewPasswordHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
