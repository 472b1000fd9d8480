package router

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/adapter/api/handler"
	"messageapp/internal/adapter/api/middleware"
)

func SetupFeedRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	feedHandler := handler.GetFeedHandler()

	postGroup := e.Group("/v1/posts")
	postGroup.Use(authMiddleware.Authenticate)

	postGroup.GET("", feedHandler.ListPosts)
	postGroup.POST("", feedHandler.CreatePost)
	postGroup.POST("/:id/likes", feedHandler.ToggleLike)

	postGroup.GET("/:id/comments", feedHandler.ListComments)
	postGroup.POST("/:id/comments", feedHandler.SubmitComment)
	postGroup.DELETE("/:id/comments/:commentId", feedHandler.DeleteComment)
}
