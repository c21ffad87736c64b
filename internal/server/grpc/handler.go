package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// SignIn checks {username, password} and persists the session. The session
// key is returned in the response header.
func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c := callFrom(ctx)
	if c == nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	params := auth.Params{}
	params.Set(common.ParamUsername, req.GetFields()[common.ParamUsername].GetStringValue())
	params.Set(common.ParamPassword, req.GetFields()[common.ParamPassword].GetStringValue())

	sess := s.manager.ForSignIn(params, c.store, c.ip)
	if !sess.Valid(ctx) {
		if sess.Err() != nil {
			s.logger.Error(ctx, "sign in failed", "error", sess.Err())
			return nil, status.Error(codes.Internal, "internal error")
		}
		return nil, s.unauthenticated(ctx, "invalid username or password")
	}

	saved, err := sess.Save(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to persist session", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	u := sess.User(ctx)
	s.logger.Info(ctx, "Signed in", "user_id", u.ID)

	return structpb.NewStruct(map[string]any{
		"user_id":   u.ID,
		"username":  u.Username,
		"persisted": saved,
	})
}

func (s *GRPCServer) SignOut(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	sess, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if err := sess.Destroy(ctx); err != nil {
		s.logger.Error(ctx, "sign out failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	sess, ok := auth.FromContext(ctx)
	if !ok || !sess.Valid(ctx) {
		return nil, s.unauthenticated(ctx, "authentication required")
	}
	u := sess.User(ctx)

	return structpb.NewStruct(map[string]any{
		"user_id":  u.ID,
		"username": u.Username,
		"method":   sess.Method().String(),
	})
}

func (s *GRPCServer) Account(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	u := authorizedUser(ctx)
	if u == nil {
		return nil, s.unauthenticated(ctx, "authorization required")
	}
	if err := s.accounts.LoadAuthorizations(ctx, u); err != nil {
		s.logger.Error(ctx, "failed to load providers", "user_id", u.ID, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return structpb.NewStruct(accountFields(u))
}

func accountFields(u *models.User) map[string]any {
	providers := make([]any, 0, len(u.Authorizations))
	for _, a := range u.Authorizations {
		providers = append(providers, a.Provider)
	}

	var lastAt any
	if u.LastSessionAt != nil {
		lastAt = u.LastSessionAt.UTC().Format(time.RFC3339)
	}

	return map[string]any{
		"user_id":           u.ID,
		"username":          u.Username,
		"email":             u.Email,
		"session_count":     u.SessionCount,
		"failed_auth_count": u.FailedAuthCount,
		"last_session_ip":   u.LastSessionIP,
		"last_session_at":   lastAt,
		"providers":         providers,
	}
}
