package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *entity.User
}

type RefreshResult struct {
	AccessToken string
	ExpiresIn   int64
	User        *entity.User
}

// TokenValidation carries the persisted user behind a valid access token.
type TokenValidation struct {
	User      *entity.User
	ExpiresAt time.Time
}

type SelfDeleteResult struct {
	PendingDeleteUntil time.Time
}

type DesignerPage struct {
	Users []*entity.User
	Total int
	Page  int
	Limit int
}

type PosterRequestView struct {
	Request   *entity.PosterRequest
	Requester *entity.User
}

type FinalizeResult struct {
	FinalizedAccounts int64
	PrunedSessions    int64
}
