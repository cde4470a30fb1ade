package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/events"
	"github.com/vibast-solutions/ms-go-identity/app/types"
)

// AccountLifecycleService owns the two deletion paths and the out-of-band
// Admin grant. Self-delete only opens a grace window; FinalizeExpired turns
// elapsed windows into deletions.
type AccountLifecycleService interface {
	SelfDelete(ctx context.Context, userID uint64, req *types.SelfDeleteRequest) (*dto.SelfDeleteResult, error)
	CancelSelfDelete(ctx context.Context, userID uint64) error
	AdminDelete(ctx context.Context, targetID uint64) error
	AdminUndelete(ctx context.Context, targetID uint64) error
	FinalizeExpired(ctx context.Context) (*dto.FinalizeResult, error)
	GrantAdmin(ctx context.Context, username string) (*entity.User, error)
}

type accountLifecycleService struct {
	base
	userRepo    userRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	gracePeriod time.Duration
}

func NewAccountLifecycleService(
	userRepo userRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	gracePeriod time.Duration,
	opts ...Option,
) AccountLifecycleService {
	return &accountLifecycleService{
		base:        newBase(opts),
		userRepo:    userRepo,
		hasher:      hasher,
		tokens:      tokens,
		gracePeriod: gracePeriod,
	}
}

func (s *accountLifecycleService) SelfDelete(ctx context.Context, userID uint64, req *types.SelfDeleteRequest) (*dto.SelfDeleteResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || req.ConfirmPassword == "" {
		return nil, fmt.Errorf("%w: email, password and confirm_password are required", ErrValidation)
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordConfirmMismatch
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	if user.IsDead(now) {
		return nil, ErrAlreadyDeleted
	}
	if NormalizeEmail(req.Email) != NormalizeEmail(user.Email) {
		return nil, ErrEmailMismatch
	}
	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	until := now.Add(s.gracePeriod)
	rows, err := s.userRepo.SetPendingDelete(ctx, user.ID, until, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyDeleted
	}

	s.publish(events.NewAccountEvent(events.TypeDeletionScheduled, user.ID, now).
		With("pending_delete_until", until.UTC().Format(time.RFC3339)))
	return &dto.SelfDeleteResult{PendingDeleteUntil: until}, nil
}

func (s *accountLifecycleService) CancelSelfDelete(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := s.now()
	if user.IsDead(now) {
		return ErrAlreadyDeleted
	}
	if !user.IsPendingDelete(now) {
		return ErrNotPendingDelete
	}

	rows, err := s.userRepo.ClearPendingDelete(ctx, user.ID, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotPendingDelete
	}

	s.publish(events.NewAccountEvent(events.TypeDeletionCancelled, user.ID, now))
	return nil
}

// AdminDelete is immediate: it clears any open window and revokes the session.
func (s *accountLifecycleService) AdminDelete(ctx context.Context, targetID uint64) error {
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := s.now()
	if user.IsDead(now) {
		return ErrAlreadyDeleted
	}

	rows, err := s.userRepo.SoftDelete(ctx, user.ID, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyDeleted
	}

	if err = s.tokens.RevokeAll(ctx, user.ID); err != nil {
		return err
	}

	s.publish(events.NewAccountEvent(events.TypeAccountDeleted, user.ID, now).With("by", "admin"))
	return nil
}

func (s *accountLifecycleService) AdminUndelete(ctx context.Context, targetID uint64) error {
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	now := s.now()
	if !user.IsDead(now) {
		return ErrNotDeleted
	}

	rows, err := s.userRepo.Undelete(ctx, user.ID, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotDeleted
	}

	s.publish(events.NewAccountEvent(events.TypeAccountRestored, user.ID, now))
	return nil
}

func (s *accountLifecycleService) FinalizeExpired(ctx context.Context) (*dto.FinalizeResult, error) {
	now := s.now()
	finalized, err := s.userRepo.FinalizeExpiredDeletes(ctx, now)
	if err != nil {
		return nil, err
	}

	pruned, err := s.tokens.PruneExpired(ctx)
	if err != nil {
		return nil, err
	}

	if finalized > 0 {
		s.publish(events.NewAccountEvent(events.TypeExpiredDeletesApplied, 0, now).
			With("count", fmt.Sprintf("%d", finalized)))
	}
	return &dto.FinalizeResult{FinalizedAccounts: finalized, PrunedSessions: pruned}, nil
}

func (s *accountLifecycleService) GrantAdmin(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if user == nil || user.IsDead(now) {
		return nil, ErrUserNotFound
	}
	if user.Status == entity.StatusAdmin {
		return user, nil
	}

	if err = s.userRepo.SetStatus(ctx, user.ID, entity.StatusAdmin, now); err != nil {
		return nil, err
	}
	user.Status = entity.StatusAdmin
	user.UpdatedAt = now

	s.publish(events.NewAccountEvent(events.TypeAdminGranted, user.ID, now))
	return user, nil
}
