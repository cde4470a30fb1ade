package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

type RefreshTokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        UserSummary `json:"user"`
}

type ValidateTokenResponse struct {
	Valid     bool   `json:"valid"`
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	ExpiresAt int64  `json:"expires_at"`
}

type SelfDeleteResponse struct {
	Message            string    `json:"message"`
	PendingDeleteUntil time.Time `json:"pending_delete_until"`
}

type DesignerListResponse struct {
	Designers  []PublicProfile `json:"designers"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

type PosterRequestResponse struct {
	ID             uint64         `json:"id"`
	UserID         uint64         `json:"user_id"`
	Statement      string         `json:"statement"`
	ApprovalStatus bool           `json:"approval_status"`
	CreatedAt      time.Time      `json:"created_at"`
	Requester      *PublicProfile `json:"requester,omitempty"`
}

type RequestStatusResponse struct {
	Status string `json:"status"`
}
