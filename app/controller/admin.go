package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AdminController struct {
	lifecycleService service.AccountLifecycleService
}

func NewAdminController(lifecycleService service.AccountLifecycleService) *AdminController {
	return &AdminController{lifecycleService: lifecycleService}
}

func (c *AdminController) DeleteUser(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	entry := c.entry(ctx, id)
	if err = c.lifecycleService.AdminDelete(ctx.Request().Context(), id); err != nil {
		return respondError(ctx, entry, "Admin delete", err)
	}

	entry.Info("User deleted by admin")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "user deleted"})
}

func (c *AdminController) RestoreUser(ctx echo.Context) error {
	id, err := types.ParseIDParam(ctx, "id")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	entry := c.entry(ctx, id)
	if err = c.lifecycleService.AdminUndelete(ctx.Request().Context(), id); err != nil {
		return respondError(ctx, entry, "Admin restore", err)
	}

	entry.Info("User restored by admin")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "user restored"})
}

func (c *AdminController) entry(ctx echo.Context, targetID uint64) *logrus.Entry {
	entry := logrus.WithField("target_id", targetID)
	if admin := middleware.CurrentUser(ctx); admin != nil {
		entry = entry.WithField("admin_id", admin.ID)
	}
	return entry
}
