package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
	"messageapp/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	fileGroup := e.Group("/v1/files")
	fileGroup.Use(authMiddleware.Authenticate)

	fileGroup.POST("", handler.GetFileHandler().UploadFile)
}
