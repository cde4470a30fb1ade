package entity

import "time"

const DefaultPosterStatement = "view_to_post"

type PosterRequest struct {
	ID             uint64
	UserID         uint64
	Statement      string
	ApprovalStatus bool
	CreatedAt      time.Time
}

func (r *PosterRequest) IsPending() bool {
	return !r.ApprovalStatus
}
