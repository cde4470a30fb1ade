package service

import "github.com/vibast-solutions/ms-go-identity/app/apperror"

var (
	ErrValidation              = apperror.New(apperror.KindValidation, "invalid request")
	ErrWeakPassword            = apperror.New(apperror.KindValidation, "password does not meet policy requirements")
	ErrPasswordConfirmMismatch = apperror.New(apperror.KindMismatch, "password and confirmation do not match")
	ErrEmailMismatch           = apperror.New(apperror.KindMismatch, "email does not match the account")
	ErrUserExists              = apperror.New(apperror.KindConflict, "user already exists")
	ErrUsernameTaken           = apperror.New(apperror.KindConflict, "username already exists")
	ErrEmailTaken              = apperror.New(apperror.KindConflict, "email already exists")
	ErrUserNotFound            = apperror.New(apperror.KindNotFound, "user not found")
	ErrInvalidCredentials      = apperror.New(apperror.KindBadCredential, "invalid credentials")
	ErrCurrentPasswordInvalid  = apperror.New(apperror.KindBadCredential, "current password is incorrect")
	ErrTokenExpired            = apperror.New(apperror.KindTokenExpired, "token has expired")
	ErrInvalidToken            = apperror.New(apperror.KindTokenInvalid, "invalid token")
	ErrAccountInactive         = apperror.New(apperror.KindTokenInvalid, "account is no longer active")
	ErrInvalidRefreshToken     = apperror.New(apperror.KindInvalidRefresh, "invalid refresh token")
	ErrAlreadyDeleted          = apperror.New(apperror.KindAlreadyDeleted, "user is already deleted")
	ErrNotDeleted              = apperror.New(apperror.KindNotDeleted, "user is not deleted")
	ErrNotPendingDelete        = apperror.New(apperror.KindNotDeleted, "no pending deletion to cancel")
	ErrRequestNotFound         = apperror.New(apperror.KindNotFound, "poster request not found")
	ErrDuplicateRequest        = apperror.New(apperror.KindDuplicateRequest, "a poster request is already pending")
	ErrAlreadyElevated         = apperror.New(apperror.KindAlreadyElevated, "user already has posting privileges")
)
