package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutation rate limits. Only POST routes (paid toggles, batch commits,
// transaction entries) are limited; panel reads are cheap and served from
// the session mirror.
const (
	mutationLimit   = 30               // mutations per window per client
	mutationWindow  = time.Minute      // counting window
	staleClientAge  = 10 * time.Minute // drop idle clients after this
	cleanupInterval = 5 * time.Minute
)

// rateLimiter tracks mutation counts per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*mutationWindowState
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type mutationWindowState struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*mutationWindowState),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries.
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(cleanupInterval)
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

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleClientAge)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// allow reports whether a mutation from the given IP fits inside the
// current window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists || now.Sub(client.windowStart) > mutationWindow {
		rl.clients[clientIP] = &mutationWindowState{
			windowStart: now,
			lastSeen:    now,
			count:       1,
		}
		return true
	}

	client.count++
	client.lastSeen = now

	if client.count > mutationLimit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}

	return true
}
