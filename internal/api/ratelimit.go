package api

import (
	"sync"
	"time"
)

// RateLimiter manages per-caller rate limiting for mutating requests
type RateLimiter struct {
	limiters map[string]*callerLimiter
	mu       sync.RWMutex
}

// callerLimiter handles rate limiting for a specific caller
type callerLimiter struct {
	tokens chan struct{}
	refill *time.Ticker
	limit  int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*callerLimiter),
	}
}

// Allow reports whether the caller may make another request right now.
func (rl *RateLimiter) Allow(caller string, requestsPerMinute int) bool {
	limiter := rl.getLimiter(caller, requestsPerMinute)

	select {
	case <-limiter.tokens:
		return true
	default:
		return false
	}
}

// getLimiter gets or creates a rate limiter for a caller
func (rl *RateLimiter) getLimiter(caller string, requestsPerMinute int) *callerLimiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[caller]
	rl.mu.RUnlock()

	if exists && limiter.limit == requestsPerMinute {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := rl.limiters[caller]; exists && limiter.limit == requestsPerMinute {
		return limiter
	}

	// Clean up existing limiter if it exists
	if limiter, exists := rl.limiters[caller]; exists {
		limiter.refill.Stop()
	}

	tokens := make(chan struct{}, requestsPerMinute)

	// Fill initial tokens
	for i := 0; i < requestsPerMinute; i++ {
		tokens <- struct{}{}
	}

	refillTicker := time.NewTicker(time.Minute / time.Duration(requestsPerMinute))

	limiter = &callerLimiter{
		tokens: tokens,
		refill: refillTicker,
		limit:  requestsPerMinute,
	}

	// Start refill goroutine
	go limiter.startRefill()

	rl.limiters[caller] = limiter
	return limiter
}

// startRefill continuously refills tokens
func (cl *callerLimiter) startRefill() {
	for range cl.refill.C {
		select {
		case cl.tokens <- struct{}{}:
		default:
			// Channel full, skip this refill
		}
	}
}

// Stop stops all rate limiters
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, limiter := range rl.limiters {
		limiter.refill.Stop()
	}
}
