// Package apperror defines the closed set of failure kinds surfaced by the
// identity core and their transport mappings.
package apperror

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindBadCredential
	KindTokenExpired
	KindTokenInvalid
	KindInvalidRefresh
	KindNotFound
	KindAlreadyDeleted
	KindNotDeleted
	KindForbidden
	KindDuplicateRequest
	KindAlreadyElevated
	KindMismatch
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindValidation:       "validation_error",
	KindConflict:         "conflict",
	KindBadCredential:    "bad_credential",
	KindTokenExpired:     "token_expired",
	KindTokenInvalid:     "token_invalid",
	KindInvalidRefresh:   "invalid_refresh",
	KindNotFound:         "not_found",
	KindAlreadyDeleted:   "already_deleted",
	KindNotDeleted:       "not_deleted",
	KindForbidden:        "forbidden",
	KindDuplicateRequest: "duplicate_request",
	KindAlreadyElevated:  "already_elevated",
	KindMismatch:         "mismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Error is a tagged failure. Sentinels are compared by identity with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindMismatch:
		return http.StatusBadRequest
	case KindBadCredential, KindTokenExpired, KindTokenInvalid, KindInvalidRefresh:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindAlreadyDeleted, KindNotDeleted, KindDuplicateRequest, KindAlreadyElevated:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func GRPCCode(kind Kind) codes.Code {
	switch kind {
	case KindValidation, KindMismatch:
		return codes.InvalidArgument
	case KindBadCredential, KindTokenExpired, KindTokenInvalid, KindInvalidRefresh:
		return codes.Unauthenticated
	case KindForbidden:
		return codes.PermissionDenied
	case KindNotFound:
		return codes.NotFound
	case KindConflict, KindDuplicateRequest, KindAlreadyElevated:
		return codes.AlreadyExists
	case KindAlreadyDeleted, KindNotDeleted:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
