package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"messageapp/pkg/logger"
)

// Event is the envelope pushed to connected clients. Type identifies the
// stream ("chat_list", "thread", "feed", "comments") and Payload carries
// the full replacement view for that stream.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is one live WebSocket connection bound to a verified user.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager tracks active connections by user id. A user has at most one
// connection; a newer one displaces the older.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registration loop until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if old, ok := m.clients[client.UserID]; ok {
					close(old.Send)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Debug("WebSocket client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Debug("WebSocket client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser pushes an event to userID's connection if one is open. A slow
// consumer loses the event rather than blocking the sender; the next full
// snapshot supersedes it anyway.
func (m *Manager) SendToUser(userID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to encode event for %s: %v", userID, err)
		return
	}

	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- payload:
	default:
	}
}

// ReadPump consumes inbound frames until the connection drops. Inbound
// traffic is ignored, the socket is push-only; reading is still required
// to process control frames and detect closure.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			return
		}
	}
}

// WritePump drains the send channel into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
