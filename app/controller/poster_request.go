package controller

import (
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type PosterRequestController struct {
	posterRequestService service.PosterRequestService
}

func NewPosterRequestController(posterRequestService service.PosterRequestService) *PosterRequestController {
	return &PosterRequestController{posterRequestService: posterRequestService}
}

func (c *PosterRequestController) Submit(ctx echo.Context) error {
	req, err := types.NewSubmitPosterRequestRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind poster request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	entry := logrus.WithField("user_id", userID)
	request, err := c.posterRequestService.Submit(ctx.Request().Context(), userID, req)
	if err != nil {
		return respondError(ctx, entry, "Submit poster request", err)
	}

	entry.WithField("request_id", request.ID).Info("Poster request submitted")
	return ctx.JSON(http.StatusCreated, httpdto.NewPosterRequestResponse(&dto.PosterRequestView{Request: request}, time.Now()))
}

func (c *PosterRequestController) Status(ctx echo.Context) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	status, err := c.posterRequestService.CheckStatus(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, logrus.WithField("user_id", userID), "Check request status", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.RequestStatusResponse{Status: status})
}

func (c *PosterRequestController) Get(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	principal := middleware.CurrentUser(ctx)
	entry := logrus.WithField("request_id", id)
	view, err := c.posterRequestService.Get(ctx.Request().Context(), principal, id)
	if err != nil {
		return respondError(ctx, entry, "Get poster request", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewPosterRequestResponse(view, time.Now()))
}

func (c *PosterRequestController) List(ctx echo.Context) error {
	views, err := c.posterRequestService.List(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, logrus.WithField("op", "list_poster_requests"), "List poster requests", err)
	}

	now := time.Now()
	resp := make([]httpdto.PosterRequestResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, httpdto.NewPosterRequestResponse(view, now))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *PosterRequestController) Approve(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	entry := logrus.WithField("request_id", id)
	if admin := middleware.CurrentUser(ctx); admin != nil {
		entry = entry.WithField("admin_id", admin.ID)
	}

	request, err := c.posterRequestService.Approve(ctx.Request().Context(), id)
	if err != nil {
		return respondError(ctx, entry, "Approve poster request", err)
	}

	entry.WithField("user_id", request.UserID).Info("Poster request approved")
	return ctx.JSON(http.StatusOK, httpdto.NewPosterRequestResponse(&dto.PosterRequestView{Request: request}, time.Now()))
}
