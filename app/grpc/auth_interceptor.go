package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-identity/app/apperror"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type userKey struct{}

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*entity.User, error)
}

// AccessTokenUnaryInterceptor authenticates the listed full method names from
// "authorization: Bearer" metadata. Other methods pass through untouched.
func AccessTokenUnaryInterceptor(auth authenticator, protected ...string) gogrpc.UnaryServerInterceptor {
	guarded := methodSet(protected)
	return func(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if !guarded[info.FullMethod] {
			return handler(ctx, req)
		}

		user, err := authenticateIncoming(ctx, auth)
		if err != nil {
			return nil, err
		}
		return handler(context.WithValue(ctx, userKey{}, user), req)
	}
}

// UserFromContext returns the user stored by the interceptor, if any.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(userKey{}).(*entity.User)
	return user, ok && user != nil
}

func authenticateIncoming(ctx context.Context, auth authenticator) (*entity.User, error) {
	token, ok := middleware.BearerToken(incomingAuthorization(ctx))
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization metadata")
	}

	user, err := auth.Authenticate(ctx, token)
	if err != nil {
		kind := apperror.KindOf(err)
		if kind == apperror.KindInternal {
			logrus.WithError(err).Error("Failed to authenticate request (grpc)")
			return nil, status.Error(codes.Internal, "internal server error")
		}
		return nil, status.Error(apperror.GRPCCode(kind), err.Error())
	}
	return user, nil
}

func incomingAuthorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func methodSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}
