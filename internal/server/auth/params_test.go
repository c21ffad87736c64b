package auth

import (
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Accessors(t *testing.T) {
	p := Params{
		common.ParamUsername: "jimbob",
		common.ParamPassword: "secret",
		common.ParamAPIKey:   " key ",
		common.ParamKey:      "tok@id",
		"remember_me":        "true",
		"attempts":           "3",
	}

	assert.Equal(t, "jimbob", p.Username())
	assert.Equal(t, "secret", p.Password())
	assert.Equal(t, "key", p.APIKey())
	assert.Equal(t, "tok@id", p.Key())

	b, err := p.Bool("remember_me")
	require.NoError(t, err)
	assert.True(t, b)

	n, err := p.Int("attempts")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	b, err = p.Bool("missing")
	require.NoError(t, err)
	assert.False(t, b)
}

func TestParams_TypedErrors(t *testing.T) {
	p := Params{"flag": "maybe", "n": "x"}

	_, err := p.Bool("flag")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = p.Int("n")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestParams_SetGet(t *testing.T) {
	p := Params{}
	p.Set("arbitrary", "value")
	assert.True(t, p.Has("arbitrary"))
	assert.Equal(t, "value", p.Get("arbitrary"))

	p.Set("arbitrary", "")
	assert.False(t, p.Has("arbitrary"))

	var nilParams Params
	assert.Empty(t, nilParams.Get("anything"))
}

func TestParams_Credentials(t *testing.T) {
	p := Params{
		common.ParamUsername: "jimbob",
		common.ParamPassword: "secret",
		common.ParamAPIKey:   "key",
		common.ParamKey:      "tok@id",
	}
	assert.Equal(t, Params{common.ParamUsername: "jimbob"}, p.Credentials())
}

func TestParams_Nil(t *testing.T) {
	var p Params
	assert.Empty(t, p.Get(common.ParamUsername))
	assert.False(t, p.Has(common.ParamUsername))
	assert.Empty(t, p.Credentials())
	assert.Panics(t, func() { p.Set("remember_me", "true") })
}
