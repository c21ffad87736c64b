// Package grpc hosts the session gates on a gRPC server. The
// gophauth.v1.Sessions service signs callers in and out and exposes two
// gated methods: WhoAmI needs an authenticated session, Account needs an
// authorized one.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Accounts loads the extra user data the Account method returns.
type Accounts interface {
	LoadAuthorizations(ctx context.Context, user *models.User) error
}

type GRPCServer struct {
	address    string
	manager    *auth.Manager
	sessions   *sessionstore.Factory
	accounts   Accounts
	signInPath string
	logger     logging.Logger
	health     *health.Server
}

func NewGRPCServer(a string, l logging.Logger, m *auth.Manager, f *sessionstore.Factory, accounts Accounts, signInPath string) *GRPCServer {
	return &GRPCServer{
		address:    a,
		manager:    m,
		sessions:   f,
		accounts:   accounts,
		signInPath: signInPath,
		logger:     l.With("module", "grpc_server"),
		health:     health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.sessionInterceptor))

	RegisterSessionsServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}
