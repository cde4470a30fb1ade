package grpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/apperror"
	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtectedMethods require an authenticated caller.
var ProtectedMethods = []string{
	FullMethod("Logout"),
	FullMethod("CheckRequestStatus"),
}

type IdentityServer struct {
	userAuthService      service.UserAuthService
	profileService       service.UserProfileService
	posterRequestService service.PosterRequestService
}

func NewIdentityServer(
	userAuthService service.UserAuthService,
	profileService service.UserProfileService,
	posterRequestService service.PosterRequestService,
) *IdentityServer {
	return &IdentityServer{
		userAuthService:      userAuthService,
		profileService:       profileService,
		posterRequestService: posterRequestService,
	}
}

func (s *IdentityServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := &types.LoginRequest{
		Identifier: stringField(req, "identifier"),
		Password:   stringField(req, "password"),
	}
	if err := in.Validate(); err != nil {
		logrus.Debug("Login validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	entry := logrus.WithField("identifier", in.Identifier)
	result, err := s.userAuthService.Login(ctx, in)
	if err != nil {
		return nil, toStatus(entry, "Login", err)
	}

	entry.WithField("user_id", result.User.ID).Info("Login successful (grpc)")
	return toStruct(httpdto.LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		User:         httpdto.NewUserSummary(result.User),
	})
}

func (s *IdentityServer) RefreshSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := &types.RefreshTokenRequest{RefreshToken: stringField(req, "refresh_token")}
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.userAuthService.RefreshToken(ctx, in)
	if err != nil {
		return nil, toStatus(logrus.WithField("op", "refresh_session"), "Refresh session", err)
	}

	logrus.WithField("user_id", result.User.ID).Info("Access token refreshed (grpc)")
	return toStruct(httpdto.RefreshTokenResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User:        httpdto.NewUserSummary(result.User),
	})
}

func (s *IdentityServer) Logout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	in := &types.LogoutRequest{RefreshToken: stringField(req, "refresh_token")}
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	entry := logrus.WithField("user_id", user.ID)
	if err := s.userAuthService.Logout(ctx, user.ID, in); err != nil {
		return nil, toStatus(entry, "Logout", err)
	}

	entry.Info("Logout successful (grpc)")
	return toStruct(httpdto.MessageResponse{Message: "logged out successfully"})
}

// ValidateToken reports an unusable token as valid=false rather than an error.
func (s *IdentityServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := &types.ValidateTokenRequest{AccessToken: stringField(req, "access_token")}
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.userAuthService.ValidateAccessToken(ctx, in.AccessToken)
	if err != nil {
		kind := apperror.KindOf(err)
		if kind == apperror.KindInternal {
			return nil, toStatus(logrus.WithField("op", "validate_token"), "Validate token", err)
		}
		logrus.WithField("reason", kind.String()).Debug("Validate token failed (grpc)")
		return toStruct(httpdto.ValidateTokenResponse{Valid: false})
	}

	return toStruct(httpdto.NewValidateTokenResponse(result))
}

func (s *IdentityServer) CheckRequestStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	requestStatus, err := s.posterRequestService.CheckStatus(ctx, user.ID)
	if err != nil {
		return nil, toStatus(logrus.WithField("user_id", user.ID), "Check request status", err)
	}
	return toStruct(httpdto.RequestStatusResponse{Status: requestStatus})
}

func (s *IdentityServer) GetPublicProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := numberField(req, "user_id")
	if id == 0 {
		return nil, status.Error(codes.InvalidArgument, "user_id must be a positive number")
	}

	user, err := s.profileService.GetPublicProfile(ctx, id)
	if err != nil {
		return nil, toStatus(logrus.WithField("target_id", id), "Get public profile", err)
	}
	return toStruct(httpdto.NewPublicProfile(user, time.Now()))
}

func toStatus(entry *logrus.Entry, action string, err error) error {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		entry.WithError(err).Error(action + " failed (grpc)")
		return status.Error(codes.Internal, "internal server error")
	}
	entry.WithField("reason", kind.String()).Warn(action + " failed (grpc)")
	return status.Error(apperror.GRPCCode(kind), err.Error())
}

// toStruct converts a response DTO through its JSON form so field names match HTTP.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode grpc response")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err = protojson.Unmarshal(data, out); err != nil {
		logrus.WithError(err).Error("Failed to encode grpc response")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func numberField(req *structpb.Struct, key string) uint64 {
	n := req.GetFields()[key].GetNumberValue()
	if n < 1 || n != float64(uint64(n)) {
		return 0
	}
	return uint64(n)
}
