package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupAuthRouter(e)
	SetupUserRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupFeedRouter(e, authMiddleware)
	SetupFileRouter(e, authMiddleware)
	SetupWebSocketRouter(e)
	SetupHealthRouter(e)
}
