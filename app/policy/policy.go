// Package policy holds the role and ownership guards applied after a
// session has been authenticated.
package policy

import (
	"github.com/vibast-solutions/ms-go-identity/app/apperror"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

var (
	ErrForbidden        = apperror.New(apperror.KindForbidden, "forbidden")
	ErrResourceNotFound = apperror.New(apperror.KindNotFound, "resource not found")
)

func HasRole(user *entity.User, roles ...string) bool {
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Status == role {
			return true
		}
	}
	return false
}

func RequireRole(user *entity.User, roles ...string) error {
	if !HasRole(user, roles...) {
		return ErrForbidden
	}
	return nil
}

// CheckOwnership lets Admin through unconditionally. A missing resource is
// reported as not found before ownership is considered.
func CheckOwnership(principal *entity.User, ownerID uint64, found bool) error {
	if !found {
		return ErrResourceNotFound
	}
	if principal == nil {
		return ErrForbidden
	}
	if principal.Status == entity.StatusAdmin || principal.ID == ownerID {
		return nil
	}
	return ErrForbidden
}
