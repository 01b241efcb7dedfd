package ws

import (
	"time"

	"payments_backend/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one feed subscriber. The feed is server-to-client only; inbound
// frames are read just to service pings and detect disconnects.
type Client struct {
	Subject string
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
}

func NewClient(subject string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Subject: subject,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Hub:     hub,
	}
}

// Run registers the client and blocks until the connection ends.
func (c *Client) Run() {
	// queued before registering; once registered only the hub may close Send
	c.Send <- []byte(`{"type":"` + MsgReady + `"}`)

	if !c.Hub.Register(c) {
		_ = c.Conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("feed read error", "subject", c.Subject, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("feed write error", "subject", c.Subject, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
