package handlers

import (
	"sync"
	"time"
)

// RateLimiter allows limit attempts per key in each fixed window.
type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rateLimiter := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rateLimiter.cleanup()
	return rateLimiter
}

// reset the attempts map every window duration
func (rateLimiter *RateLimiter) cleanup() {
	ticker := time.NewTicker(rateLimiter.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rateLimiter.mutex.Lock()
			rateLimiter.attempts = make(map[string]int)
			rateLimiter.mutex.Unlock()
		case <-rateLimiter.stop:
			return
		}
	}
}

func (rateLimiter *RateLimiter) Allow(key string) bool {
	rateLimiter.mutex.Lock()
	defer rateLimiter.mutex.Unlock()

	if rateLimiter.attempts[key] >= rateLimiter.limit {
		return false
	}
	rateLimiter.attempts[key]++
	return true
}

// Stop ends the cleanup goroutine.
func (rateLimiter *RateLimiter) Stop() {
	rateLimiter.stopOnce.Do(func() { close(rateLimiter.stop) })
}
