package controller

import (
	"net/http"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	profileService   service.UserProfileService
	lifecycleService service.AccountLifecycleService
}

func NewUserController(profileService service.UserProfileService, lifecycleService service.AccountLifecycleService) *UserController {
	return &UserController{
		profileService:   profileService,
		lifecycleService: lifecycleService,
	}
}

func (c *UserController) Me(ctx echo.Context) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.profileService.GetProfile(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, logrus.WithField("user_id", userID), "Get profile", err)
	}
	return ctx.JSON(http.StatusOK, httpdto.NewOwnProfile(user))
}

func (c *UserController) PublicProfile(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	entry := logrus.WithField("target_id", id)
	user, err := c.profileService.GetPublicProfile(ctx.Request().Context(), id)
	if err != nil {
		return respondError(ctx, entry, "Get public profile", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewPublicProfile(user, time.Now()))
}

func (c *UserController) UpdateProfile(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("target_id", id).Debug("Update profile validation failed")
		return badRequest(ctx, err.Error())
	}

	principal := middleware.CurrentUser(ctx)
	entry := logrus.WithField("target_id", id)
	if principal != nil {
		entry = entry.WithField("user_id", principal.ID)
	}

	user, err := c.profileService.UpdateProfile(ctx.Request().Context(), principal, id, req)
	if err != nil {
		return respondError(ctx, entry, "Update profile", err)
	}

	entry.Info("Profile updated")
	return ctx.JSON(http.StatusOK, httpdto.NewOwnProfile(user))
}

func (c *UserController) SelfDelete(ctx echo.Context) error {
	req, err := types.NewSelfDeleteRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind self delete request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Self delete validation failed")
		return badRequest(ctx, err.Error())
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	entry := logrus.WithField("user_id", userID)
	result, err := c.lifecycleService.SelfDelete(ctx.Request().Context(), userID, req)
	if err != nil {
		return respondError(ctx, entry, "Self delete", err)
	}

	entry.WithField("pending_delete_until", result.PendingDeleteUntil).Info("Account scheduled for deletion")
	return ctx.JSON(http.StatusOK, httpdto.SelfDeleteResponse{
		Message:            "account scheduled for deletion",
		PendingDeleteUntil: result.PendingDeleteUntil,
	})
}

func (c *UserController) CancelSelfDelete(ctx echo.Context) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	entry := logrus.WithField("user_id", userID)
	if err := c.lifecycleService.CancelSelfDelete(ctx.Request().Context(), userID); err != nil {
		return respondError(ctx, entry, "Cancel self delete", err)
	}

	entry.Info("Account deletion cancelled")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "account deletion cancelled"})
}

func (c *UserController) ListDesigners(ctx echo.Context) error {
	req, err := types.NewListDesignersRequestFromContext(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	page, err := c.profileService.ListDesigners(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, logrus.WithField("page", req.Page), "List designers", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewDesignerListResponse(page, time.Now()))
}
