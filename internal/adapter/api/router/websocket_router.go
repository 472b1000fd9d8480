package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
)

func SetupWebSocketRouter(e *echo.Echo) {
	// Auth happens inside the handler via a token query parameter.
	e.GET("/v1/ws", handler.GetWebSocketHandler().HandleConnection)
}
