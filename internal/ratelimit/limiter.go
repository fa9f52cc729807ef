// Package ratelimit provides per-user rate limiting functionality.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the rate limiting configuration.
type Config struct {
	UserRPS         float64       // Requests per second for regular users
	UserBurst       int           // Burst size for regular users
	AdminRPS        float64       // Requests per second for admins
	AdminBurst      int           // Burst size for admins
	CleanupInterval time.Duration // How often to clean up idle limiters
}

// DefaultConfig provides sensible defaults for rate limiting.
var DefaultConfig = Config{
	UserRPS:         10,        // 10 requests/second
	UserBurst:       30,        // Autosave drafts come in bursts
	AdminRPS:        100,       // Admin dashboards poll listings
	AdminBurst:      200,       // Large burst for admins
	CleanupInterval: time.Hour, // Clean up idle limiters every hour
}

// rateLimiterEntry holds a rate limiter and tracks its last usage.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
	isAdmin  bool // Track tier to detect role changes
}

// RateLimiter manages per-user rate limiting.
type RateLimiter struct {
	limiters map[string]*rateLimiterEntry
	mu       sync.RWMutex
	config   Config

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// It starts a background goroutine for cleanup.
func NewRateLimiter(config Config) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		config:   config,
		stopCh:   make(chan struct{}),
	}

	rl.wg.Add(1)
	go rl.cleanupLoop()

	return rl
}

// Allow checks if a request from the given user is allowed.
// It returns true if the request is within rate limits, false otherwise.
func (rl *RateLimiter) Allow(userID string, isAdmin bool) bool {
	limiter := rl.GetLimiter(userID, isAdmin)
	return limiter.Allow()
}

// GetLimiter returns the rate limiter for the given user, creating one if
// necessary. If the user's role tier has changed, a new limiter with the
// appropriate limits replaces the old one.
func (rl *RateLimiter) GetLimiter(userID string, isAdmin bool) *rate.Limiter {
	// Fast path: check if limiter exists with read lock
	rl.mu.RLock()
	entry, exists := rl.limiters[userID]
	if exists && entry.isAdmin == isAdmin {
		entry.lastUsed = time.Now()
		rl.mu.RUnlock()
		return entry.limiter
	}
	rl.mu.RUnlock()

	// Slow path: create or update limiter with write lock
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	entry, exists = rl.limiters[userID]
	if exists && entry.isAdmin == isAdmin {
		entry.lastUsed = time.Now()
		return entry.limiter
	}

	var rps float64
	var burst int
	if isAdmin {
		rps = rl.config.AdminRPS
		burst = rl.config.AdminBurst
	} else {
		rps = rl.config.UserRPS
		burst = rl.config.UserBurst
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	rl.limiters[userID] = &rateLimiterEntry{
		limiter:  limiter,
		lastUsed: time.Now(),
		isAdmin:  isAdmin,
	}

	return limiter
}

// Cleanup removes rate limiters that have been idle for longer than the
// cleanup interval. Called periodically by the background goroutine.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval)
	for userID, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, userID)
		}
	}
}

// cleanupLoop runs the periodic cleanup in the background.
func (rl *RateLimiter) cleanupLoop() {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine and waits for it to finish.
// This should be called when shutting down the application.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
	rl.wg.Wait()
}

// Len returns the number of active rate limiters.
// This is primarily useful for testing and monitoring.
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}
