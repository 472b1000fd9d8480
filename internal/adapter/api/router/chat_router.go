package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
	"messageapp/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.ListChats)
	chatGroup.GET("/candidates", chatHandler.ListCandidates)
	chatGroup.GET("/:id", chatHandler.GetChat)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.ListMessages)
	chatGroup.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)
}
