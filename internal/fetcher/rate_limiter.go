package fetcher

import (
	"context"
	"sync"
	"time"
)

// RateLimiter bounds concurrency and requests per minute, per host.
type RateLimiter struct {
	maxConcurrent int
	rpm           int
	hosts         map[string]*hostLimiter
	mu            sync.Mutex
}

type hostLimiter struct {
	sem         chan struct{}
	windowStart time.Time
	requests    int
	mu          sync.Mutex
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		rpm:           rpm,
		hosts:         make(map[string]*hostLimiter),
	}
}

// Wait blocks until a request to host may proceed.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	rl.mu.Lock()
	limiter, ok := rl.hosts[host]
	if !ok {
		limiter = &hostLimiter{sem: make(chan struct{}, rl.maxConcurrent)}
		rl.hosts[host] = limiter
	}
	rl.mu.Unlock()

	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-limiter.sem }()

	limiter.mu.Lock()
	now := time.Now()
	if now.Sub(limiter.windowStart) > time.Minute {
		limiter.requests = 0
		limiter.windowStart = now
	}

	if limiter.requests >= rl.rpm {
		waitTime := time.Minute - now.Sub(limiter.windowStart)
		limiter.mu.Unlock()

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}

		limiter.mu.Lock()
		limiter.requests = 0
		limiter.windowStart = time.Now()
	}

	limiter.requests++
	limiter.mu.Unlock()
	return nil
}
