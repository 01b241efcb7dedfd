package ws

import "time"

const (
	// server - client
	MsgReady = "ready"
)

// Event is the envelope written to every subscriber.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}
