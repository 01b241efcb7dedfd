package ws

import (
	"net/http"

	"payments_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// TokenAuthenticator resolves a bearer token to its subject.
type TokenAuthenticator interface {
	Authenticate(token string) (string, error)
}

// HandleFeed upgrades the request and subscribes it to payment events.
// When auth is nil the feed is open and clients are anonymous.
func HandleFeed(hub *Hub, auth TokenAuthenticator, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		subject := "anonymous"
		if auth != nil {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
				return
			}
			sub, err := auth.Authenticate(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			subject = sub
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(subject, conn, hub)
		go client.Run()
	}
}
