// Package server builds the GophAuth application from its configuration
// and runs the gRPC and HTTP surfaces until the process is signalled.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/providers"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
	"github.com/dmitrijs2005/gophauth/internal/server/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	users    *services.UserService
	registry *providers.Registry
	factory  *sessionstore.Factory
	manager  *auth.Manager
	metrics  *prometheus.Registry
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}

	repos, err := repomanager.New(repomanager.Kind(c.UserStore), c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	sealer, err := cryptox.NewSealer(c.SecretKey)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	factory, err := sessionstore.NewFactory(ctx, sessionstore.Options{
		Kind:       sessionstore.Kind(c.SessionStorage),
		Secret:     []byte(c.SecretKey),
		TTL:        c.SessionTTL,
		SQLitePath: c.SQLitePath,
		Redis:      sessionstore.RedisOptions{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB},
	})
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("session storage init error: %w", err)
	}

	registry := NewProviderRegistry(c)
	hasher := cryptox.NewPasswordHasher(c.PasswordCost)
	users := services.NewUserService(repos, hasher, cryptox.Default, registry, sealer, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	manager := auth.NewManager(users, hasher, auth.Options{APIKeyEnabled: c.APIKeyEnabled}, auth.NewMetrics(reg), logger)

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		users:    users,
		registry: registry,
		factory:  factory,
		manager:  manager,
		metrics:  reg,
	}, nil
}

// NewProviderRegistry registers ExtraProviders for credential linking and
// the built-in OAuth providers whose id and secret are both set.
func NewProviderRegistry(c *config.Config) *providers.Registry {
	r := providers.NewRegistry(c.ExtraProviders...)
	if c.OAuthGitHubID != "" && c.OAuthGitHubSecret != "" {
		r.AddOAuth(providers.GitHub(c.OAuthGitHubID, c.OAuthGitHubSecret, c.OAuthCallbackURL))
	}
	if c.OAuthGoogleID != "" && c.OAuthGoogleSecret != "" {
		r.AddOAuth(providers.Google(c.OAuthGoogleID, c.OAuthGoogleSecret, c.OAuthCallbackURL))
	}
	return r
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.manager, app.factory, app.users, app.config.SignInPath)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewServer(web.Options{
		Address:      app.config.EndpointAddrHTTP,
		SignInPath:   app.config.SignInPath,
		CookieSecret: []byte(app.config.SecretKey),
		CookieSecure: app.config.CookieSecure,
		SessionTTL:   app.config.SessionTTL,
	}, app.logger, app.manager, app.factory, app.users, app.registry, app.metrics)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweep purges expired server-side sessions every SweepInterval.
func (app *App) sweep(ctx context.Context) {
	if app.config.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.factory.Sweep(ctx)
			if err != nil {
				app.logger.Warn(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

// Run migrates the user store and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"user_store", app.config.UserStore,
		"session_storage", app.factory.Kind(),
		"providers", app.registry.Names(),
	)

	defer app.close(ctx)

	if err := app.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sweep(ctx)
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.factory.Close(); err != nil {
		app.logger.Error(ctx, "failed to close session storage", "error", err)
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "failed to close user store", "error", err)
	}
}
