package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"time"

	"payments_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// feed_tail connects to /ws/payments and prints every event until
// interrupted or until -n events have been received.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	addr := flag.String("addr", "127.0.0.1:"+port, "server host:port")
	token := flag.String("token", os.Getenv("FEED_TOKEN"), "bearer token when the server runs with AUTH_REQUIRED=true")
	count := flag.Int("n", 0, "exit after n events (0 = run until interrupted)")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/payments"}
	if *token != "" {
		u.RawQuery = url.Values{"token": {*token}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			logger.Fatal("dial feed", "url", u.Redacted(), "status", resp.StatusCode, "error", err)
		}
		logger.Fatal("dial feed", "url", u.Redacted(), "error", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := 0
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Info("feed closed", "error", err)
				return
			}
			fmt.Println(string(msg))
			seen++
			// the ready greeting does not count
			if *count > 0 && seen > *count {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
