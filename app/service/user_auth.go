package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/events"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/types"
	"github.com/vibast-solutions/ms-go-identity/config"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*entity.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uint64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string, now time.Time) error
	SetStatus(ctx context.Context, id uint64, status string, now time.Time) error
	SetPendingDelete(ctx context.Context, id uint64, until, now time.Time) (int64, error)
	ClearPendingDelete(ctx context.Context, id uint64, now time.Time) (int64, error)
	SoftDelete(ctx context.Context, id uint64, now time.Time) (int64, error)
	Undelete(ctx context.Context, id uint64, now time.Time) (int64, error)
	FinalizeExpiredDeletes(ctx context.Context, now time.Time) (int64, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.User, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (*dto.LoginResult, error)
	RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*dto.RefreshResult, error)
	Logout(ctx context.Context, userID uint64, req *types.LogoutRequest) error
	ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error
	ValidateAccessToken(ctx context.Context, tokenString string) (*dto.TokenValidation, error)
	Authenticate(ctx context.Context, tokenString string) (*entity.User, error)
}

type userAuthService struct {
	base
	userRepo userRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	policy   config.PasswordPolicy
}

func NewUserAuthService(
	userRepo userRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	policy config.PasswordPolicy,
	opts ...Option,
) UserAuthService {
	return &userAuthService{
		base:     newBase(opts),
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		policy:   policy,
	}
}

func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	username := strings.TrimSpace(req.Username)
	email := NormalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrValidation)
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordConfirmMismatch
	}
	if err := s.policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Status:       entity.StatusView,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.publish(events.NewAccountEvent(events.TypeUserRegistered, user.ID, now))
	return user, nil
}

// Login reports an unknown identifier and a wrong password as different errors.
func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByUsernameOrEmail(ctx, normalizeIdentifier(req.Identifier))
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDead(s.now()) {
		return nil, ErrUserNotFound
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.tokens.IssueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User:         user,
	}, nil
}

// RefreshToken mints a new access token. The refresh token is not rotated.
func (s *userAuthService) RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*dto.RefreshResult, error) {
	userID, err := s.tokens.VerifyRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDead(s.now()) {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		User:        user,
	}, nil
}

func (s *userAuthService) Logout(ctx context.Context, userID uint64, req *types.LogoutRequest) error {
	return s.tokens.Revoke(ctx, userID, req.RefreshToken)
}

func (s *userAuthService) ChangePassword(ctx context.Context, userID uint64, req *types.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordConfirmMismatch
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.IsDead(s.now()) {
		return ErrUserNotFound
	}

	if !s.hasher.Verify(user.PasswordHash, req.CurrentPassword) {
		return ErrCurrentPasswordInvalid
	}

	if err = s.policy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err = s.userRepo.UpdatePassword(ctx, user.ID, hashed, s.now()); err != nil {
		return err
	}

	return s.tokens.RevokeAll(ctx, user.ID)
}

// ValidateAccessToken reports the persisted user, not the token claims, so
// a deleted account or a changed status is reflected immediately.
func (s *userAuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*dto.TokenValidation, error) {
	user, claims, err := s.liveSubject(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return &dto.TokenValidation{User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Authenticate verifies the access token and reloads the subject so that
// deleted accounts and stale status claims are never trusted.
func (s *userAuthService) Authenticate(ctx context.Context, tokenString string) (*entity.User, error) {
	user, _, err := s.liveSubject(ctx, tokenString)
	return user, err
}

func (s *userAuthService) liveSubject(ctx context.Context, tokenString string) (*entity.User, *AccessClaims, error) {
	claims, err := s.tokens.VerifyAccess(tokenString)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.IsDead(s.now()) {
		return nil, nil, ErrAccountInactive
	}
	return user, claims, nil
}
