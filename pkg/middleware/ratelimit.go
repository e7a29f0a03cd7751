package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kevin07696/settlement-service/pkg/encoding"
)

// clientLimiter is one caller's token bucket
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles gateway callbacks and cron triggers per client IP.
// Idle buckets are swept periodically; when full, the least recently seen
// client is evicted.
type RateLimiter struct {
	logger          *zap.Logger
	limiters        map[string]*clientLimiter
	stopCh          chan struct{}
	rate            rate.Limit
	burst           int
	maxSize         int           // Maximum number of client limiters to cache
	cleanupInterval time.Duration // How often to drop idle entries
	mu              sync.Mutex
	stopOnce        sync.Once
}

// NewRateLimiter allows each client requestsPerSecond with bursts up to burst
func NewRateLimiter(requestsPerSecond float64, burst int, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		logger:          logger,
		limiters:        make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
		rate:            rate.Limit(requestsPerSecond),
		burst:           burst,
		maxSize:         10000,
		cleanupInterval: 5 * time.Minute,
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.cleanupInterval)
	removed := 0
	for client, l := range rl.limiters {
		if l.lastAccess.Before(cutoff) {
			delete(rl.limiters, client)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("Rate limiter cleanup",
			zap.Int("removed", removed),
			zap.Int("remaining", len(rl.limiters)),
		)
	}
}

// Shutdown stops the cleanup goroutine
func (rl *RateLimiter) Shutdown() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if l, ok := rl.limiters[client]; ok {
		l.lastAccess = now
		return l.limiter
	}

	if len(rl.limiters) >= rl.maxSize {
		rl.evictOldestLocked()
	}

	l := &clientLimiter{
		limiter:    rate.NewLimiter(rl.rate, rl.burst),
		lastAccess: now,
	}
	rl.limiters[client] = l
	return l.limiter
}

func (rl *RateLimiter) evictOldestLocked() {
	var (
		oldest   string
		oldestAt time.Time
		found    bool
	)
	for client, l := range rl.limiters {
		if !found || l.lastAccess.Before(oldestAt) {
			oldest, oldestAt, found = client, l.lastAccess, true
		}
	}
	if found {
		delete(rl.limiters, oldest)
	}
}

// clientKey strips the port. RemoteAddr is already rewritten by chi's RealIP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects over-limit requests with 429 and the JSON body every
// callback endpoint uses, so gateways treat it as a retryable failure.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !rl.getLimiter(client).Allow() {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client_ip", client),
				zap.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			_ = encoding.WriteJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"success": false,
				"message": "rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
