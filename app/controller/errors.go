package controller

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-identity/app/apperror"
	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// respondError renders a service failure. Internal failures are logged with
// their cause and hidden from the client.
func respondError(ctx echo.Context, entry *logrus.Entry, action string, err error) error {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		entry.WithError(err).Error(action + " failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	entry.WithField("reason", kind.String()).Warn(action + " failed: " + err.Error())
	return ctx.JSON(apperror.HTTPStatus(kind), httpdto.ErrorResponse{Error: err.Error()})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: message})
}
