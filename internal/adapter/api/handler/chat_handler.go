package handler

import (
	"github.com/labstack/echo/v4"

	"messageapp/internal/usecase"
	"messageapp/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	RecipientID    string `json:"recipient_id" validate:"required"`
	InitialMessage string `json:"initial_message"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), userID, usecase.CreateChatInput{
		RecipientID:    req.RecipientID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// ListChats returns the user's chats ordered by last activity, newest
// first. The optional q parameter filters on the other participant's
// display name.
func (h *ChatHandler) ListChats(c echo.Context) error {
	userID := c.Get("uid").(string)

	items, err := h.chatUseCase.ListChats(c.Request().Context(), userID, c.QueryParam("q"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	userID := c.Get("uid").(string)

	item, err := h.chatUseCase.GetChat(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, item)
}

// ListCandidates returns users the current user has no chat with yet.
func (h *ChatHandler) ListCandidates(c echo.Context) error {
	userID := c.Get("uid").(string)

	candidates, err := h.chatUseCase.ListChatCandidates(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, candidates)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteMessage(c.Request().Context(), userID, c.Param("id"), c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
