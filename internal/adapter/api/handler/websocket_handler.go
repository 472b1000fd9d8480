package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"messageapp/internal/domain/repository"
	"messageapp/internal/infrastructure/firebase"
	ws "messageapp/internal/infrastructure/websocket"
	"messageapp/internal/usecase"
	"messageapp/pkg/logger"
)

// WebSocketHandler upgrades authenticated connections and bridges the
// user's live chat list onto them. Each connection owns one synchronizer;
// closing the socket stops it.
type WebSocketHandler struct {
	manager    *ws.Manager
	authClient *firebase.AuthClient
	chatRepo   repository.ChatRepository
	directory  *usecase.ParticipantDirectory
	upgrader   websocket.Upgrader
}

var webSocketHandler *WebSocketHandler

func NewWebSocketHandler(manager *ws.Manager, authClient *firebase.AuthClient, chatRepo repository.ChatRepository, directory *usecase.ParticipantDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		manager:    manager,
		authClient: authClient,
		chatRepo:   chatRepo,
		directory:  directory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func SetupWebSocketHandler(manager *ws.Manager, authClient *firebase.AuthClient, chatRepo repository.ChatRepository, directory *usecase.ParticipantDirectory) {
	webSocketHandler = NewWebSocketHandler(manager, authClient, chatRepo, directory)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// HandleConnection authenticates via a token query parameter (browsers
// cannot set headers on WebSocket dials), upgrades, and streams chat list
// snapshots until the client disconnects.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token is required")
	}

	uid, err := h.authClient.VerifyToken(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed for %s: %v", uid, err)
		return err
	}

	client := &ws.Client{
		UserID: uid,
		Conn:   conn,
		Send:   make(chan []byte, 16),
	}
	h.manager.Register <- client

	go client.WritePump()

	// The connection outlives the HTTP request after the upgrade, so the
	// synchronizer gets its own lifetime tied to the socket.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sync := usecase.NewChatListSynchronizer(h.chatRepo, h.directory)
	if err := sync.Start(ctx, uid); err != nil {
		conn.Close()
		return err
	}
	defer sync.Stop()

	go func() {
		for view := range sync.Updates() {
			h.manager.SendToUser(uid, ws.Event{Type: "chat_list", Payload: view})
		}
	}()
	go func() {
		for err := range sync.Errors() {
			h.manager.SendToUser(uid, ws.Event{Type: "error", Payload: err.Error()})
		}
	}()

	client.ReadPump(h.manager)
	return nil
}
