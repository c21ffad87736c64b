package grpc

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/sessionstore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type gate int

const (
	gateNone gate = iota
	gateAuthenticated
	gateAuthorized
)

var gates = map[string]gate{
	MethodWhoAmI:  gateAuthenticated,
	MethodAccount: gateAuthorized,
}

type ctxKey string

const (
	callKey           ctxKey = "call"
	authorizedUserKey ctxKey = "authorizedUser"
)

// call is the per-request state the handlers share with the interceptor.
type call struct {
	carrier *metadataCarrier
	store   sessionstore.Store
	ip      string
}

func callFrom(ctx context.Context) *call {
	c, _ := ctx.Value(callKey).(*call)
	return c
}

func authorizedUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(authorizedUserKey).(*models.User)
	return u
}

// sessionInterceptor builds the request's session, enforces the method's
// gate and sends changed session metadata back in the response header.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
		return handler(ctx, req)
	}

	carrier := newMetadataCarrier(ctx)
	c := &call{carrier: carrier, store: s.sessions.Store(carrier), ip: peerIP(ctx)}

	sess := s.manager.New(paramsFromMetadata(carrier.in), c.store, c.ip)
	ctx = auth.WithSession(ctx, sess)
	ctx = context.WithValue(ctx, callKey, c)

	switch gates[info.FullMethod] {
	case gateAuthenticated:
		if !sess.Valid(ctx) {
			if sess.Err() != nil {
				s.logger.Error(ctx, "session validation failed", "method", info.FullMethod, "error", sess.Err())
				return nil, status.Error(codes.Internal, "internal error")
			}
			return nil, s.unauthenticated(ctx, "authentication required")
		}
	case gateAuthorized:
		u, err := s.manager.Authorize(ctx, sess)
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, s.unauthenticated(ctx, "authorization required")
		}
		if err != nil {
			s.logger.Error(ctx, "authorization failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
		ctx = context.WithValue(ctx, authorizedUserKey, u)
	}

	resp, err := handler(ctx, req)

	if ferr := carrier.flush(ctx); ferr != nil {
		s.logger.Warn(ctx, "failed to send session header", "error", ferr)
	}
	return resp, err
}

// unauthenticated tells the caller where to sign in.
func (s *GRPCServer) unauthenticated(ctx context.Context, msg string) error {
	if err := grpc.SetTrailer(ctx, metadata.Pairs(common.SignInLocationKey, s.signInPath)); err != nil {
		s.logger.Warn(ctx, "failed to set trailer", "error", err)
	}
	return status.Error(codes.Unauthenticated, msg)
}

// paramsFromMetadata maps the API key and persisted key entries onto
// session parameters.
func paramsFromMetadata(md metadata.MD) auth.Params {
	p := auth.Params{}
	p.Set(common.ParamAPIKey, firstValue(md, common.APIKeyHeaderName))
	p.Set(common.ParamKey, firstValue(md, common.ParamKey))
	return p
}

func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
