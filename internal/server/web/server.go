// Package web exposes the session gates over HTTP with gin. The session key
// travels in a signed cookie; API keys in the X-API-Key header.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/providers"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Users is the account API the handlers need. services.UserService
// implements it.
type Users interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Update(ctx context.Context, user *models.User, fields map[string]string) (*services.SaveResult, error)
	LinkIdentity(ctx context.Context, user *models.User, provider string, id *providers.Identity) (*services.SaveResult, error)
	FindByProvider(ctx context.Context, provider, uid string) (*models.User, error)
	LoadAuthorizations(ctx context.Context, user *models.User) error
}

// Options configure the HTTP surface.
type Options struct {
	Address      string
	SignInPath   string
	CookieSecret []byte
	CookieSecure bool
	SessionTTL   time.Duration
}

type Server struct {
	opts      Options
	manager   *auth.Manager
	factory   *sessionstore.Factory
	users     Users
	providers *providers.Registry
	cookies   sessions.Store
	tokens    cryptox.TokenSource
	gatherer  prometheus.Gatherer
	logger    logging.Logger
}

// NewServer wires the HTTP surface. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(opts Options, l logging.Logger, m *auth.Manager, f *sessionstore.Factory, users Users,
	registry *providers.Registry, gatherer prometheus.Gatherer) *Server {
	if opts.SignInPath == "" {
		opts.SignInPath = "/sign-in"
	}
	return &Server{
		opts:      opts,
		manager:   m,
		factory:   f,
		users:     users,
		providers: registry,
		cookies:   NewCookieStore(opts.CookieSecret, int(opts.SessionTTL.Seconds()), opts.CookieSecure),
		tokens:    cryptox.Default,
		gatherer:  gatherer,
		logger:    l.With("module", "http_server"),
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.session())

	r.GET(s.opts.SignInPath, s.signInHint)
	r.POST(s.opts.SignInPath, s.signIn)
	r.POST("/sign-up", s.signUp)
	r.POST("/sign-out", s.signOut)

	r.GET("/me", s.RequireAuthenticated(), s.me)

	account := r.Group("/account", s.RequireAuthorized())
	account.GET("", s.account)
	account.PATCH("", s.updateAccount)

	r.GET("/auth/:provider", s.oauthStart)
	r.GET("/auth/:provider/callback", s.oauthCallback)

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
