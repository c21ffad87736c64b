package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T, userInfo string, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(userInfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server, uidField string) *OAuthProvider {
	return NewOAuthProvider(OAuthSettings{
		Name:         "Acme",
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/user",
		UIDField:     uidField,
		RedirectURL:  "http://localhost/auth/acme/callback",
	})
}

func TestExchange_NumericID(t *testing.T) {
	srv := newProviderServer(t, `{"id": 12345678901, "email": "jim@example.com"}`, http.StatusOK)
	p := newTestProvider(srv, "")

	id, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "12345678901", id.UID)
	assert.Equal(t, "jim@example.com", id.Email)
	assert.Equal(t, "at-123", id.Token)
}

func TestExchange_CustomUIDField(t *testing.T) {
	srv := newProviderServer(t, `{"sub": "abc-1"}`, http.StatusOK)
	id, err := newTestProvider(srv, "sub").Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "abc-1", id.UID)
	assert.Empty(t, id.Email)
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		userInfo string
		status   int
	}{
		{"empty code", "", `{}`, http.StatusOK},
		{"bad code", "bad-code", `{}`, http.StatusOK},
		{"user info error", "good-code", `{}`, http.StatusInternalServerError},
		{"missing uid", "good-code", `{"email":"x@y.z"}`, http.StatusOK},
		{"bad json", "good-code", `not json`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProviderServer(t, tt.userInfo, tt.status)
			_, err := newTestProvider(srv, "id").Exchange(context.Background(), tt.code)
			assert.Error(t, err)
		})
	}
}

func TestAuthCodeURL(t *testing.T) {
	srv := newProviderServer(t, `{}`, http.StatusOK)
	p := newTestProvider(srv, "id")

	u, err := url.Parse(p.AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "acme", p.Name())
}

func TestPresets(t *testing.T) {
	gh := GitHub("id", "secret", "http://localhost:8080/")
	assert.Equal(t, "github", gh.Name())
	assert.Equal(t, "http://localhost:8080/auth/github/callback", gh.config.RedirectURL)

	g := Google("id", "secret", "http://localhost:8080")
	assert.Equal(t, "google", g.Name())
	assert.Contains(t, g.AuthCodeURL("s"), "accounts.google.com")
}
