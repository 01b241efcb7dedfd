package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int
}

// windowCounter is the in-process fixed-window counter used when Redis is
// not configured or unreachable.
type windowCounter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	window  time.Duration
}

func newWindowCounter(window time.Duration) *windowCounter {
	return &windowCounter{clients: make(map[string]*clientInfo), window: window}
}

// hit records one request for key and returns the count in the current window.
func (w *windowCounter) hit(key string, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	ci, ok := w.clients[key]
	if !ok || now.Sub(ci.start) > w.window {
		if len(w.clients) > 10000 {
			w.pruneLocked(now)
		}
		w.clients[key] = &clientInfo{start: now, count: 1}
		return 1
	}

	ci.count++
	return ci.count
}

func (w *windowCounter) pruneLocked(now time.Time) {
	for k, ci := range w.clients {
		if now.Sub(ci.start) > w.window {
			delete(w.clients, k)
		}
	}
}
