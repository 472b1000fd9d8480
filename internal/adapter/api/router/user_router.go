package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
	"messageapp/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	userGroup := e.Group("/v1/users")
	userGroup.Use(authMiddleware.Authenticate)

	userGroup.GET("/me", userHandler.GetMe)
	userGroup.PATCH("/me", userHandler.UpdateProfile)
	userGroup.GET("/:id", userHandler.GetUser)
}
