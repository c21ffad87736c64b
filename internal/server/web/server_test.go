package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/providers"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	handler http.Handler
	repo    *repomanager.MemoryRepositoryManager
	users   *services.UserService
	jim     *models.User
}

// client keeps the session cookie between requests.
type client struct {
	t       *testing.T
	env     *testEnv
	cookies map[string]*http.Cookie
	header  http.Header
}

func newIdentityProvider(t *testing.T) *httptest.Server {
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
		_, _ = w.Write([]byte(`{"id": 4242, "email": "jim@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T, opts auth.Options, reg *prometheus.Registry) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	idp := newIdentityProvider(t)
	registry := providers.NewRegistry()
	registry.AddOAuth(providers.NewOAuthProvider(providers.OAuthSettings{
		Name:         "acme",
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      idp.URL + "/authorize",
		TokenURL:     idp.URL + "/token",
		UserInfoURL:  idp.URL + "/user",
		RedirectURL:  "http://localhost/auth/acme/callback",
	}))

	repo := repomanager.NewMemoryRepositoryManager()
	hasher := cryptox.NewPasswordHasher(bcrypt.MinCost)
	users := services.NewUserService(repo, hasher, cryptox.Default, registry, nil, logging.Nop{})

	jim, err := users.Signup(ctx, services.SignupInput{
		Email: "jim@example.com", Username: "jimbob", Password: "test", PasswordConfirmation: "test",
	})
	require.NoError(t, err)

	factory, err := sessionstore.NewFactory(ctx, sessionstore.Options{Kind: sessionstore.KindMemory, TTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	var metrics *auth.Metrics
	var gatherer prometheus.Gatherer
	if reg != nil {
		metrics = auth.NewMetrics(reg)
		gatherer = reg
	}

	manager := auth.NewManager(users, hasher, opts, metrics, logging.Nop{})
	srv := NewServer(Options{CookieSecret: testSecret, SessionTTL: time.Hour}, logging.Nop{},
		manager, factory, users, registry, gatherer)

	return &testEnv{handler: srv.Handler(), repo: repo, users: users, jim: jim}
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, env: e, cookies: map[string]*http.Cookie{}, header: http.Header{}}
}

func (c *client) do(method, target string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = httptest.NewRequest(method, target, strings.NewReader(string(b)))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for k, v := range c.header {
		r.Header[k] = v
	}
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.env.handler.ServeHTTP(w, r)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) signIn() {
	c.t.Helper()
	w := c.do(http.MethodPost, "/sign-in", map[string]string{"username": "jimbob", "password": "test"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(c.t, c.cookies, common.SessionKeyName)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSignIn_ThenMe(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()

	w := c.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, env.jim.ID, body["id"])
	assert.Equal(t, "jimbob", body["username"])
	assert.Equal(t, "token", body["method"])
}

func TestSignIn_Rejected(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"wrong password", map[string]string{"username": "jimbob", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "nobody", "password": "test"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "jimbob"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.client(t)
			w := c.do(http.MethodPost, "/sign-in", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.NotContains(t, c.cookies, common.SessionKeyName)
		})
	}
}

func TestSignIn_ByEmail(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)

	w := c.do(http.MethodPost, "/sign-in", map[string]string{"username": " JIM@example.com ", "password": "test"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/me", nil).Code)
}

func TestMe_RedirectsToSignIn(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)

	w := env.client(t).do(http.MethodGet, "/me?tab=1", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/sign-in?return_to="+url.QueryEscape("/me?tab=1"), w.Header().Get("Location"))
}

func TestSignInHint(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	w := env.client(t).do(http.MethodGet, "/sign-in?return_to=%2Fme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/me", decode(t, w)["return_to"])
}

func TestAPIKey(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, auth.Options{APIKeyEnabled: true}, nil)
		c := env.client(t)
		c.header.Set("X-API-Key", env.jim.APIKey)

		w := c.do(http.MethodGet, "/me", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "api_key", decode(t, w)["method"])
		assert.NotContains(t, c.cookies, common.SessionKeyName)
	})

	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, auth.Options{}, nil)
		c := env.client(t)
		c.header.Set("X-API-Key", env.jim.APIKey)
		assert.Equal(t, http.StatusSeeOther, c.do(http.MethodGet, "/me", nil).Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		env := newTestEnv(t, auth.Options{APIKeyEnabled: true}, nil)
		c := env.client(t)
		c.header.Set("X-API-Key", "not-a-key")
		assert.Equal(t, http.StatusSeeOther, c.do(http.MethodGet, "/me", nil).Code)
	})
}

func TestSignUp(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)

	c := env.client(t)
	w := c.do(http.MethodPost, "/sign-up", services.SignupInput{
		Email: "fred@example.com", Username: "fred", Password: "secret", PasswordConfirmation: "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fred", decode(t, w)["username"])

	dup := env.client(t).do(http.MethodPost, "/sign-up", services.SignupInput{
		Email: "other@example.com", Username: "jimbob", Password: "secret", PasswordConfirmation: "secret",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := env.client(t).do(http.MethodPost, "/sign-up", services.SignupInput{
		Email: "not-an-email", Username: "alice", Password: "secret", PasswordConfirmation: "secret",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}

func TestSignOut(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()
	old := c.cookies[common.SessionKeyName]

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/sign-out", nil).Code)
	assert.NotContains(t, c.cookies, common.SessionKeyName)

	// the stored record is gone, so replaying the old cookie fails too
	c.cookies[common.SessionKeyName] = old
	assert.Equal(t, http.StatusSeeOther, c.do(http.MethodGet, "/me", nil).Code)
}

func TestAccount(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()

	w := c.do(http.MethodGet, "/account", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "jim@example.com", body["email"])
	assert.EqualValues(t, 1, body["session_count"])
	assert.NotEmpty(t, body["last_session_ip"])
	assert.Equal(t, []any{}, body["providers"])
}

func TestAccount_RechecksActive(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()

	u, err := env.users.FindByID(context.Background(), env.jim.ID)
	require.NoError(t, err)
	u.Active = false
	require.NoError(t, env.repo.Users(nil).Update(context.Background(), u))

	assert.Equal(t, http.StatusSeeOther, c.do(http.MethodGet, "/account", nil).Code)
}

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()

	w := c.do(http.MethodPatch, "/account", map[string]string{"password": "fresh", "password_confirmation": "fresh"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{}, decode(t, w)["dropped"])

	// the current session follows the rotated persistence token
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/account", nil).Code)

	other := env.client(t)
	w = other.do(http.MethodPost, "/sign-in", map[string]string{"username": "jimbob", "password": "fresh"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAccount_ForbiddenField(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	c := env.client(t)
	c.signIn()

	w := c.do(http.MethodPatch, "/account", map[string]string{"active": "false"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (c *client) startOAuth(provider string) string {
	c.t.Helper()
	w := c.do(http.MethodGet, "/auth/"+provider, nil)
	require.Equal(c.t, http.StatusSeeOther, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(c.t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(c.t, state)
	return state
}

func TestOAuth_LinkThenSignIn(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)

	c := env.client(t)
	c.signIn()
	state := c.startOAuth("acme")

	w := c.do(http.MethodGet, "/auth/acme/callback?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "acme", decode(t, w)["linked"])

	w = c.do(http.MethodGet, "/account", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"acme"}, decode(t, w)["providers"])

	fresh := env.client(t)
	state = fresh.startOAuth("acme")
	w = fresh.do(http.MethodGet, "/auth/acme/callback?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = fresh.do(http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.jim.ID, decode(t, w)["id"])
}

func TestOAuth_Failures(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)

	t.Run("unknown provider", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.client(t).do(http.MethodGet, "/auth/nope", nil).Code)
	})

	t.Run("bad state", func(t *testing.T) {
		c := env.client(t)
		c.startOAuth("acme")
		w := c.do(http.MethodGet, "/auth/acme/callback?code=good-code&state=forged", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no state cookie", func(t *testing.T) {
		w := env.client(t).do(http.MethodGet, "/auth/acme/callback?code=good-code&state=x", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("exchange fails", func(t *testing.T) {
		c := env.client(t)
		state := c.startOAuth("acme")
		w := c.do(http.MethodGet, "/auth/acme/callback?code=bad-code&state="+url.QueryEscape(state), nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("not linked", func(t *testing.T) {
		c := env.client(t)
		state := c.startOAuth("acme")
		w := c.do(http.MethodGet, "/auth/acme/callback?code=good-code&state="+url.QueryEscape(state), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, c.cookies, common.SessionKeyName)
	})
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, prometheus.NewRegistry())
	c := env.client(t)
	c.signIn()

	w := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gophauth_session_validations_total{method="password",outcome="valid"} 1`)
}

func TestMetrics_NotServedWithoutGatherer(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, nil)
	assert.Equal(t, http.StatusNotFound, env.client(t).do(http.MethodGet, "/metrics", nil).Code)
}
