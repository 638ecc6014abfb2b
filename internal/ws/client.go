package ws

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/auth"
)

type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected user
type Client struct {
	UserID string
	hub    *Hub
	conn   conn
	send   chan []byte
}

func newClient(h *Hub, userID string, c conn) *Client {
	return &Client{UserID: userID, hub: h, conn: c, send: make(chan []byte, sendBuffer)}
}

// readPump discards inbound frames; the socket is server-to-client only.
// It returns when the peer goes away.
func (c *Client) readPump() {
	defer c.hub.Unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *Client) serve() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

// Upgrade authenticates the ?token= query before the protocol switch, so
// bad tokens get a plain 401.
func Upgrade(v *auth.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		uid, err := v.Validate(strings.TrimSpace(c.Query("token")))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
				"code":  apperr.KindUnauthenticated,
			})
		}
		c.Locals("user_id", uid)
		return c.Next()
	}
}

func NewWebsocketHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			_ = c.Close()
			return
		}
		hub.log.Debug("websocket connected", zap.String("user_id", uid))
		newClient(hub, uid, c).serve()
		hub.log.Debug("websocket disconnected", zap.String("user_id", uid))
	})
}
