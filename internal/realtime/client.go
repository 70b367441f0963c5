package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"peerprep/interview/internal/models"
)

const writeWait = 10 * time.Second

// Client is one authenticated websocket connection. Writes are serialized.
type Client struct {
	Conn   *websocket.Conn
	id     string
	userID string
	mu     sync.Mutex
	hook   func(models.Frame)
}

func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{Conn: conn, id: uuid.NewString(), userID: userID}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.Frame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Emit sends one server event.
func (c *Client) Emit(event string, payload any) {
	c.Send(models.Frame{Event: event, Data: payload})
}

func (c *Client) Send(frame models.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.Conn.WriteJSON(frame)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil {
		return nil
	}
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *Client) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.Conn.Close()
}
