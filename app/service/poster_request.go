package service

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/events"
	"github.com/vibast-solutions/ms-go-identity/app/policy"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/types"
)

const (
	RequestStatusApproved = "approved"
	RequestStatusPending  = "pending"
	RequestStatusNone     = "none"
)

type posterRequestRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.PosterRequest, error)
	FindPendingByUserID(ctx context.Context, userID uint64) (*entity.PosterRequest, error)
	List(ctx context.Context) ([]*entity.PosterRequest, error)
}

type PosterRequestService interface {
	Submit(ctx context.Context, userID uint64, req *types.SubmitPosterRequestRequest) (*entity.PosterRequest, error)
	Approve(ctx context.Context, requestID uint64) (*entity.PosterRequest, error)
	CheckStatus(ctx context.Context, userID uint64) (string, error)
	List(ctx context.Context) ([]*dto.PosterRequestView, error)
	Get(ctx context.Context, principal *entity.User, requestID uint64) (*dto.PosterRequestView, error)
}

type posterRequestService struct {
	base
	db          *sql.DB
	userRepo    userRepository
	requestRepo posterRequestRepository
}

func NewPosterRequestService(
	db *sql.DB,
	userRepo userRepository,
	requestRepo posterRequestRepository,
	opts ...Option,
) PosterRequestService {
	return &posterRequestService{
		base:        newBase(opts),
		db:          db,
		userRepo:    userRepo,
		requestRepo: requestRepo,
	}
}

// Submit locks the user row so concurrent submissions cannot both pass the
// pending check.
func (s *posterRequestService) Submit(ctx context.Context, userID uint64, req *types.SubmitPosterRequestRequest) (*entity.PosterRequest, error) {
	statement := strings.TrimSpace(req.Statement)
	if statement == "" {
		statement = entity.DefaultPosterStatement
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txUserRepo := repository.NewUserRepository(tx)
	user, err := txUserRepo.FindByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDead(s.now()) {
		return nil, ErrUserNotFound
	}
	if user.IsElevated() {
		return nil, ErrAlreadyElevated
	}

	txRequestRepo := repository.NewPosterRequestRepository(tx)
	pending, err := txRequestRepo.FindPendingByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrDuplicateRequest
	}

	request := &entity.PosterRequest{
		UserID:    userID,
		Statement: statement,
		CreatedAt: s.now(),
	}
	if err = txRequestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(events.NewAccountEvent(events.TypePosterRequested, userID, request.CreatedAt).
		With("request_id", strconv.FormatUint(request.ID, 10)))
	return request, nil
}

// Approve is idempotent. Only a View user is promoted; Admin is never demoted.
// Requests from deleted or pending-delete accounts are refused.
func (s *posterRequestService) Approve(ctx context.Context, requestID uint64) (*entity.PosterRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRequestRepo := repository.NewPosterRequestRepository(tx)
	request, err := txRequestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}

	now := s.now()
	txUserRepo := repository.NewUserRepository(tx)
	requester, err := txUserRepo.FindByID(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	if requester == nil || requester.IsHidden(now) {
		return nil, ErrUserNotFound
	}

	if err = txRequestRepo.MarkApproved(ctx, request.ID); err != nil {
		return nil, err
	}

	promoted, err := txUserRepo.PromoteToPoster(ctx, request.UserID, now)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	wasPending := request.IsPending()
	request.ApprovalStatus = true
	if wasPending || promoted > 0 {
		s.publish(events.NewAccountEvent(events.TypePosterApproved, request.UserID, now).
			With("request_id", strconv.FormatUint(request.ID, 10)))
	}
	return request, nil
}

func (s *posterRequestService) CheckStatus(ctx context.Context, userID uint64) (string, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.IsDead(s.now()) {
		return "", ErrUserNotFound
	}
	if user.IsElevated() {
		return RequestStatusApproved, nil
	}

	pending, err := s.requestRepo.FindPendingByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if pending != nil {
		return RequestStatusPending, nil
	}
	return RequestStatusNone, nil
}

func (s *posterRequestService) List(ctx context.Context) ([]*dto.PosterRequestView, error) {
	requests, err := s.requestRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	requesters := make(map[uint64]*entity.User)
	views := make([]*dto.PosterRequestView, 0, len(requests))
	for _, request := range requests {
		requester, ok := requesters[request.UserID]
		if !ok {
			requester, err = s.userRepo.FindByID(ctx, request.UserID)
			if err != nil {
				return nil, err
			}
			requesters[request.UserID] = requester
		}
		views = append(views, &dto.PosterRequestView{Request: request, Requester: requester})
	}
	return views, nil
}

func (s *posterRequestService) Get(ctx context.Context, principal *entity.User, requestID uint64) (*dto.PosterRequestView, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var ownerID uint64
	if request != nil {
		ownerID = request.UserID
	}
	if err = policy.CheckOwnership(principal, ownerID, request != nil); err != nil {
		if request == nil {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	requester, err := s.userRepo.FindByID(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.PosterRequestView{Request: request, Requester: requester}, nil
}
