package security

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window rate limiter keyed by client address,
// protecting the invite-generation endpoint from abuse.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	rate    int
	window  time.Duration
}

type clientWindow struct {
	remaining   int
	windowStart time.Time
}

// NewLimiter creates a limiter allowing rate requests per window.
func NewLimiter(rate int, window time.Duration) *Limiter {
	l := &Limiter{
		clients: make(map[string]*clientWindow),
		rate:    rate,
		window:  window,
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from the given client should proceed.
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.clients[client]
	if !ok || now.Sub(w.windowStart) >= l.window {
		l.clients[client] = &clientWindow{remaining: l.rate - 1, windowStart: now}
		return true
	}

	if w.remaining > 0 {
		w.remaining--
		return true
	}
	return false
}

// cleanup drops stale client entries so the map cannot grow unbounded.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for client, w := range l.clients {
			if now.Sub(w.windowStart) > 2*l.window {
				delete(l.clients, client)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client address from the request, honoring
// proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			return strings.TrimSpace(forwarded[:i])
		}
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
