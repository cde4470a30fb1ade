package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/apperror"
	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/policy"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
)

type authenticator interface {
	Authenticate(ctx context.Context, tokenString string) (*entity.User, error)
}

type AuthMiddleware struct {
	auth authenticator
}

func NewAuthMiddleware(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth resolves the bearer token to a live user and stores it on the context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := BearerToken(c.Request().Header.Get("Authorization"))
		if !ok {
			logrus.Debug("Missing or malformed authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing or invalid authorization header"})
		}

		user, err := m.auth.Authenticate(c.Request().Context(), tokenString)
		if err != nil {
			kind := apperror.KindOf(err)
			if kind == apperror.KindInternal {
				logrus.WithError(err).Error("Failed to authenticate request")
				return c.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
			}
			logrus.WithField("reason", kind.String()).Debug("Rejected access token")
			return c.JSON(apperror.HTTPStatus(kind), httpdto.ErrorResponse{Error: err.Error()})
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if err := policy.RequireRole(user, roles...); err != nil {
				fields := logrus.Fields{"required": roles}
				if user != nil {
					fields["user_id"] = user.ID
				}
				logrus.WithFields(fields).Debug("Insufficient role")
				return c.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: err.Error()})
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *entity.User {
	user, _ := c.Get(ContextKeyUser).(*entity.User)
	return user
}

func CurrentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextKeyUserID).(uint64)
	return id, ok && id != 0
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
