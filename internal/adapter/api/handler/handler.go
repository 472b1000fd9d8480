package handler

import (
	"messageapp/internal/usecase"
)

var (
	authHandler *AuthHandler
	userHandler *UserHandler
	chatHandler *ChatHandler
	feedHandler *FeedHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	chatUseCase *usecase.ChatUseCase,
	feedAggregator *usecase.FeedAggregator,
	uploader ImageUploader,
	maxUploadBytes int64,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	feedHandler = NewFeedHandler(feedAggregator, uploader, maxUploadBytes)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetFeedHandler() *FeedHandler {
	return feedHandler
}
