package providers

import (
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry("Twitter", " ", "ldap")
	r.AddOAuth(GitHub("id", "secret", "http://localhost:8080"))

	assert.True(t, r.Registered("twitter"))
	assert.True(t, r.Registered("GitHub"))
	assert.False(t, r.Registered("myspace"))
	assert.False(t, r.Registered(""))
	assert.Equal(t, []string{"github", "ldap", "twitter"}, r.Names())

	p, err := r.OAuth("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name())

	_, err = r.OAuth("twitter")
	assert.ErrorIs(t, err, common.ErrUnknownProvider)
	_, err = r.OAuth("myspace")
	assert.ErrorIs(t, err, common.ErrUnknownProvider)
}
