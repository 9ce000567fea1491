package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bunkrfetch/internal"
)

// TokenBucketLimiter implements rate limiting using a token bucket
type TokenBucketLimiter struct {
	rate       int64 // bytes per second
	bucket     int64
	maxBucket  int64
	lastUpdate time.Time
	mutex      sync.Mutex
}

// NewTokenBucketLimiter creates a new rate limiter
func NewTokenBucketLimiter(bytesPerSecond int64) internal.RateLimiter {
	return &TokenBucketLimiter{
		rate:       bytesPerSecond,
		bucket:     bytesPerSecond,
		maxBucket:  bytesPerSecond,
		lastUpdate: time.Now(),
	}
}

// Wait blocks until n bytes may be transferred or the context is cancelled
func (l *TokenBucketLimiter) Wait(ctx context.Context, n int) error {
	for {
		l.mutex.Lock()
		l.refill()

		if l.bucket >= int64(n) {
			l.bucket -= int64(n)
			l.mutex.Unlock()
			return nil
		}

		missing := int64(n) - l.bucket
		l.mutex.Unlock()

		// sleep long enough for the bucket to cover the shortfall
		delay := time.Duration(missing) * time.Second / time.Duration(l.currentRate())
		if delay < time.Millisecond {
			delay = time.Millisecond
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetRate updates the limiter rate
func (l *TokenBucketLimiter) SetRate(bytesPerSecond int64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.rate = bytesPerSecond
	l.maxBucket = bytesPerSecond
	if l.bucket > l.maxBucket {
		l.bucket = l.maxBucket
	}
}

// refill adds tokens for the time elapsed since the last update.
// Caller must hold the mutex.
func (l *TokenBucketLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.lastUpdate = now

	l.bucket += int64(elapsed * float64(l.rate))
	if l.bucket > l.maxBucket {
		l.bucket = l.maxBucket
	}
}

func (l *TokenBucketLimiter) currentRate() int64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.rate < 1 {
		return 1
	}
	return l.rate
}

// ParseRateLimit parses a human-readable rate limit like "5M" or "500K"
// into bytes per second.
func ParseRateLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("rate limit cannot be empty")
	}

	multiplier := int64(1)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "G"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(upper, "M"):
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(upper, "K"):
		multiplier = 1024
		s = s[:len(s)-1]
	}

	value, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate limit value %q: %w", s, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("rate limit must be positive, got %d", value)
	}

	return value * multiplier, nil
}
