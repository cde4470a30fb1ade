package entity

import (
	"database/sql"
	"time"
)

const (
	StatusView  = "View"
	StatusPost  = "Post"
	StatusAdmin = "Admin"
)

type User struct {
	ID                 uint64
	Username           string
	Email              string
	PasswordHash       string
	Status             string
	IsDeleted          bool
	PendingDeleteUntil sql.NullTime
	ProfilePicture     string
	Bio                string
	Job                string
	Location           string
	Instagram          string
	Whatsapp           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsPendingDelete reports whether a self-delete window is still open at now.
func (u *User) IsPendingDelete(now time.Time) bool {
	return u.PendingDeleteUntil.Valid && u.PendingDeleteUntil.Time.After(now)
}

// IsDead reports whether the account is deleted at now. An elapsed
// self-delete window counts even before the finalize job has run.
func (u *User) IsDead(now time.Time) bool {
	if u.IsDeleted {
		return true
	}
	return u.PendingDeleteUntil.Valid && !u.PendingDeleteUntil.Time.After(now)
}

// IsHidden reports whether the user must be presented to others as deleted.
func (u *User) IsHidden(now time.Time) bool {
	return u.IsDead(now) || u.IsPendingDelete(now)
}

func (u *User) IsElevated() bool {
	return u.Status == StatusPost || u.Status == StatusAdmin
}

type RefreshToken struct {
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
