package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("server-secret")
	require.NoError(t, err)

	sealed, err := s.Seal("gho_token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "gho_token")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "gho_token", plain)

	again, err := s.Seal("gho_token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")
}

func TestSealer_OpenRejectsTampering(t *testing.T) {
	s, err := NewSealer("server-secret")
	require.NoError(t, err)
	other, err := NewSealer("other-secret")
	require.NoError(t, err)

	sealed, err := s.Seal("value")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrSealedValue)

	_, err = s.Open("!!not base64!!")
	assert.ErrorIs(t, err, ErrSealedValue)

	_, err = s.Open("AAAA")
	assert.ErrorIs(t, err, ErrSealedValue)
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}
