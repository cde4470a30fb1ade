package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/policy"
	"github.com/vibast-solutions/ms-go-identity/app/types"
)

type UserProfileService interface {
	GetProfile(ctx context.Context, userID uint64) (*entity.User, error)
	GetPublicProfile(ctx context.Context, userID uint64) (*entity.User, error)
	UpdateProfile(ctx context.Context, principal *entity.User, targetID uint64, req *types.UpdateProfileRequest) (*entity.User, error)
	ListDesigners(ctx context.Context, req *types.ListDesignersRequest) (*dto.DesignerPage, error)
}

type userProfileService struct {
	base
	userRepo         userRepository
	defaultPageLimit int
}

func NewUserProfileService(userRepo userRepository, defaultPageLimit int, opts ...Option) UserProfileService {
	if defaultPageLimit <= 0 {
		defaultPageLimit = 6
	}
	if defaultPageLimit > types.MaxDesignerLimit {
		defaultPageLimit = types.MaxDesignerLimit
	}
	return &userProfileService{
		base:             newBase(opts),
		userRepo:         userRepo,
		defaultPageLimit: defaultPageLimit,
	}
}

func (s *userProfileService) GetProfile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDead(s.now()) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetPublicProfile returns deleted users as well; callers project them.
func (s *userProfileService) GetPublicProfile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userProfileService) UpdateProfile(ctx context.Context, principal *entity.User, targetID uint64, req *types.UpdateProfileRequest) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	found := user != nil && !user.IsDead(s.now())
	if err = policy.CheckOwnership(principal, targetID, found); err != nil {
		if !found {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", ErrValidation)
		}
		if username != user.Username {
			taken, err := s.userRepo.ExistsByUsername(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrUsernameTaken
			}
		}
		user.Username = username
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", ErrValidation)
		}
		if email != user.Email {
			taken, err := s.userRepo.ExistsByEmail(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
		}
		user.Email = email
	}

	applyString(&user.ProfilePicture, req.ProfilePicture)
	applyString(&user.Bio, req.Bio)
	applyString(&user.Job, req.Job)
	applyString(&user.Location, req.Location)
	applyString(&user.Instagram, req.Instagram)
	applyString(&user.Whatsapp, req.Whatsapp)

	user.UpdatedAt = s.now()
	if err = s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userProfileService) ListDesigners(ctx context.Context, req *types.ListDesignersRequest) (*dto.DesignerPage, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultPageLimit
	}
	if page > types.MaxDesignerPage || limit > types.MaxDesignerLimit {
		return nil, fmt.Errorf("%w: page must be at most %d and limit at most %d",
			ErrValidation, types.MaxDesignerPage, types.MaxDesignerLimit)
	}

	users, err := s.userRepo.ListByStatus(ctx, entity.StatusPost, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.userRepo.CountByStatus(ctx, entity.StatusPost)
	if err != nil {
		return nil, err
	}

	return &dto.DesignerPage{
		Users: users,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func applyString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
