package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
)

func SetupAuthRouter(e *echo.Echo) {
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", handler.GetAuthHandler().Register)
}
