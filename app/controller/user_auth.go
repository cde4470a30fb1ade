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

type UserAuthController struct {
	userAuthService service.UserAuthService
}

func NewUserAuthController(userAuthService service.UserAuthService) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("username", req.Username).Debug("Register validation failed")
		return badRequest(ctx, err.Error())
	}

	entry := logrus.WithField("username", req.Username)
	entry.Info("Register request received")
	user, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, entry, "Register", err)
	}

	entry.WithField("user_id", user.ID).Info("User registered")
	return ctx.JSON(http.StatusCreated, httpdto.RegisterResponse{
		Message: "registration successful",
		User:    httpdto.NewUserSummary(user),
	})
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Login validation failed")
		return badRequest(ctx, err.Error())
	}

	entry := logrus.WithField("identifier", req.Identifier)
	entry.Info("Login request received")
	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, entry, "Login", err)
	}

	entry.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		User:         httpdto.NewUserSummary(result.User),
	})
}

func (c *UserAuthController) RefreshToken(ctx echo.Context) error {
	req, err := types.NewRefreshTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh token request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Refresh token validation failed")
		return badRequest(ctx, err.Error())
	}

	result, err := c.userAuthService.RefreshToken(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, logrus.WithField("op", "refresh_token"), "Refresh token", err)
	}

	logrus.WithField("user_id", result.User.ID).Info("Access token refreshed")
	return ctx.JSON(http.StatusOK, httpdto.RefreshTokenResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
		User:        httpdto.NewUserSummary(result.User),
	})
}

// ValidateToken checks signature and expiry only; it does not consult the store.
func (c *UserAuthController) ValidateToken(ctx echo.Context) error {
	req, err := types.NewValidateTokenRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind validate token request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Validate token validation failed")
		return badRequest(ctx, err.Error())
	}

	result, err := c.userAuthService.ValidateAccessToken(ctx.Request().Context(), req.AccessToken)
	if err != nil {
		logrus.WithError(err).Debug("Token validation failed")
		return respondError(ctx, logrus.WithField("op", "validate_token"), "Validate token", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewValidateTokenResponse(result))
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	req, err := types.NewLogoutRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind logout request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Logout validation failed")
		return badRequest(ctx, err.Error())
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	entry := logrus.WithField("user_id", userID)
	if err = c.userAuthService.Logout(ctx.Request().Context(), userID, req); err != nil {
		return respondError(ctx, entry, "Logout", err)
	}

	entry.Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "logged out successfully"})
}

func (c *UserAuthController) ChangePassword(ctx echo.Context) error {
	req, err := types.NewChangePasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return badRequest(ctx, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Change password validation failed")
		return badRequest(ctx, err.Error())
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		logrus.Warn("Change password failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	entry := logrus.WithField("user_id", userID)
	if err = c.userAuthService.ChangePassword(ctx.Request().Context(), userID, req); err != nil {
		return respondError(ctx, entry, "Change password", err)
	}

	entry.Info("Password changed")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password changed successfully"})
}
