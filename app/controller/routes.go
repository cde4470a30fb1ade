package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth    *UserAuthController
	Users   *UserController
	Posters *PosterRequestController
	Admin   *AdminController
}

// RegisterRoutes mounts the HTTP surface. limiter guards the credential endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, limiter echo.MiddlewareFunc) {
	e.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "ok"})
	})

	auth := e.Group("/auth")
	auth.POST("/register", h.Auth.Register, limiter)
	auth.POST("/login", h.Auth.Login, limiter)
	auth.POST("/refresh-token", h.Auth.RefreshToken, limiter)
	auth.POST("/validate-token", h.Auth.ValidateToken)

	authProtected := auth.Group("", authMiddleware.RequireAuth)
	authProtected.POST("/logout", h.Auth.Logout)
	authProtected.POST("/change-password", h.Auth.ChangePassword)

	e.GET("/designers", h.Users.ListDesigners)

	users := e.Group("/users")
	users.GET("/:id", h.Users.PublicProfile)

	me := users.Group("/me", authMiddleware.RequireAuth)
	me.GET("", h.Users.Me)
	me.DELETE("", h.Users.SelfDelete)
	me.POST("/cancel-delete", h.Users.CancelSelfDelete)

	users.PUT("/:id", h.Users.UpdateProfile, authMiddleware.RequireAuth)

	posters := e.Group("/poster-requests", authMiddleware.RequireAuth)
	posters.POST("", h.Posters.Submit)
	posters.GET("/status", h.Posters.Status)
	posters.GET("/:id", h.Posters.Get)

	admin := e.Group("/admin", authMiddleware.RequireAuth, authMiddleware.RequireRole(entity.StatusAdmin))
	admin.GET("/poster-requests", h.Posters.List)
	admin.PATCH("/poster-requests/:id/approve", h.Posters.Approve)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.POST("/users/:id/restore", h.Admin.RestoreUser)
}
