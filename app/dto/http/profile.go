package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

// DeletedUsername replaces the username of deleted or pending-delete accounts.
const DeletedUsername = "[Deleted_User]"

// PublicProfile is what one user may see of another. Nil fields render as null.
type PublicProfile struct {
	ID             uint64     `json:"id"`
	Username       string     `json:"username"`
	Status         *string    `json:"status"`
	ProfilePicture *string    `json:"profile_picture"`
	Bio            *string    `json:"bio"`
	Job            *string    `json:"job"`
	Location       *string    `json:"location"`
	Instagram      *string    `json:"instagram"`
	Whatsapp       *string    `json:"whatsapp"`
	CreatedAt      *time.Time `json:"created_at"`
}

type OwnProfile struct {
	ID                 uint64     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	Status             string     `json:"status"`
	ProfilePicture     string     `json:"profile_picture"`
	Bio                string     `json:"bio"`
	Job                string     `json:"job"`
	Location           string     `json:"location"`
	Instagram          string     `json:"instagram"`
	Whatsapp           string     `json:"whatsapp"`
	PendingDeleteUntil *time.Time `json:"pending_delete_until"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewPublicProfile applies the deleted-user projection as of now.
func NewPublicProfile(user *entity.User, now time.Time) PublicProfile {
	if user.IsHidden(now) {
		return PublicProfile{ID: user.ID, Username: DeletedUsername}
	}

	createdAt := user.CreatedAt
	return PublicProfile{
		ID:             user.ID,
		Username:       user.Username,
		Status:         strPtr(user.Status),
		ProfilePicture: strPtr(user.ProfilePicture),
		Bio:            strPtr(user.Bio),
		Job:            strPtr(user.Job),
		Location:       strPtr(user.Location),
		Instagram:      strPtr(user.Instagram),
		Whatsapp:       strPtr(user.Whatsapp),
		CreatedAt:      &createdAt,
	}
}

func NewOwnProfile(user *entity.User) OwnProfile {
	profile := OwnProfile{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Status:         user.Status,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
		Job:            user.Job,
		Location:       user.Location,
		Instagram:      user.Instagram,
		Whatsapp:       user.Whatsapp,
		CreatedAt:      user.CreatedAt,
	}
	if user.PendingDeleteUntil.Valid {
		until := user.PendingDeleteUntil.Time
		profile.PendingDeleteUntil = &until
	}
	return profile
}

func NewUserSummary(user *entity.User) UserSummary {
	return UserSummary{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Status:   user.Status,
	}
}

func NewValidateTokenResponse(result *dto.TokenValidation) ValidateTokenResponse {
	return ValidateTokenResponse{
		Valid:     true,
		UserID:    result.User.ID,
		Username:  result.User.Username,
		Status:    result.User.Status,
		ExpiresAt: result.ExpiresAt.Unix(),
	}
}

func NewDesignerListResponse(page *dto.DesignerPage, now time.Time) DesignerListResponse {
	designers := make([]PublicProfile, 0, len(page.Users))
	for _, user := range page.Users {
		designers = append(designers, NewPublicProfile(user, now))
	}

	totalPages := 0
	if page.Limit > 0 {
		totalPages = (page.Total + page.Limit - 1) / page.Limit
	}
	return DesignerListResponse{
		Designers:  designers,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: totalPages,
	}
}

func NewPosterRequestResponse(view *dto.PosterRequestView, now time.Time) PosterRequestResponse {
	resp := PosterRequestResponse{
		ID:             view.Request.ID,
		UserID:         view.Request.UserID,
		Statement:      view.Request.Statement,
		ApprovalStatus: view.Request.ApprovalStatus,
		CreatedAt:      view.Request.CreatedAt,
	}
	if view.Requester != nil {
		requester := NewPublicProfile(view.Requester, now)
		resp.Requester = &requester
	}
	return resp
}

func strPtr(value string) *string {
	return &value
}
