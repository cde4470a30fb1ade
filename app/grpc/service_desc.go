package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "identity.v1.IdentityService"

// IdentityServiceServer is the gRPC surface. Payloads are google.protobuf.Struct
// objects whose keys mirror the HTTP JSON bodies.
type IdentityServiceServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RefreshSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckRequestStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPublicProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv IdentityServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IdentityServiceServer), ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(IdentityServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var IdentityServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unaryHandler("Login", IdentityServiceServer.Login),
		unaryHandler("RefreshSession", IdentityServiceServer.RefreshSession),
		unaryHandler("Logout", IdentityServiceServer.Logout),
		unaryHandler("ValidateToken", IdentityServiceServer.ValidateToken),
		unaryHandler("CheckRequestStatus", IdentityServiceServer.CheckRequestStatus),
		unaryHandler("GetPublicProfile", IdentityServiceServer.GetPublicProfile),
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "identity/v1/identity.proto",
}

func RegisterIdentityServiceServer(s gogrpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}
