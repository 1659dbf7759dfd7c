package http

import (
	"net/http"
	"sync"
	"time"

	"finanzas/internal/log"
)

// rateLimiter is a fixed-window limiter per client IP, applied to mutating
// requests only.
type rateLimiter struct {
	mu           sync.Mutex
	limit        int
	window       time.Duration
	clients      map[string]*clientInfo
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:       limit,
		window:      time.Minute,
		clients:     make(map[string]*clientInfo),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
}

// startCleanup removes stale client entries every 5 minutes until stop.
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := rl.now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow reports whether clientIP is still within its window budget.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[clientIP]
	if !ok || now.Sub(client.windowStart) > rl.window {
		rl.clients[clientIP] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.limit
}

// middleware rejects mutating requests over the limit with 429.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ip := extractClientIP(r)
		if !rl.allow(ip) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			TooManyRequestsError().Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
