package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the sessions service.
const ServiceName = "gophauth.v1.Sessions"

const (
	MethodSignIn  = "/" + ServiceName + "/SignIn"
	MethodSignOut = "/" + ServiceName + "/SignOut"
	MethodWhoAmI  = "/" + ServiceName + "/WhoAmI"
	MethodAccount = "/" + ServiceName + "/Account"
)

// SessionsServer is the server API of gophauth.v1.Sessions. Messages are
// the well-known Struct and Empty types, so no generated code is needed.
type SessionsServer interface {
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignOut(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Account(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterSessionsServer registers srv on s.
func RegisterSessionsServer(s grpc.ServiceRegistrar, srv SessionsServer) {
	s.RegisterService(&sessionsServiceDesc, srv)
}

var sessionsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: signInHandler},
		{MethodName: "SignOut", Handler: signOutHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
		{MethodName: "Account", Handler: accountHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/sessions.proto",
}

func signInHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).SignIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSignIn}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).SignIn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func signOutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).SignOut(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSignOut}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).SignOut(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWhoAmI}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func accountHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).Account(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAccount}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionsServer).Account(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionsClient calls gophauth.v1.Sessions.
type SessionsClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionsClient(cc grpc.ClientConnInterface) *SessionsClient {
	return &SessionsClient{cc: cc}
}

func (c *SessionsClient) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSignIn, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionsClient) SignOut(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodSignOut, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *SessionsClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodWhoAmI, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionsClient) Account(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodAccount, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
