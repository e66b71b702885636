package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nexfield/nexfield-api/libs/go/logger"
)

// Buckets idle longer than this are dropped by the sweeper.
const bucketIdleEviction = 10 * time.Minute

// clientBucket pairs a token bucket with the last time its owner called.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-caller token bucket. Callers are keyed by
// API key when one is presented, otherwise by address, so one noisy
// importer cannot starve the rest.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket

	rate       int
	burst      int
	sweepEvery time.Duration
}

// NewRateLimiter builds a limiter allowing requestsPerSecond sustained
// with the given burst, and starts its eviction sweeper.
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*clientBucket),
		rate:       requestsPerSecond,
		burst:      burst,
		sweepEvery: 5 * time.Minute,
	}
	go rl.sweep()
	return rl
}

// sweep periodically drops buckets for callers that have gone quiet.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.sweepEvery)
	defer ticker.Stop()

	for range ticker.C {
		horizon := time.Now().Add(-bucketIdleEviction)
		rl.mu.Lock()
		for key, bucket := range rl.clients {
			if bucket.lastSeen.Before(horizon) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// bucketFor returns the caller's bucket, creating one on first sight.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, ok := rl.clients[key]; ok {
		bucket.lastSeen = time.Now()
		return bucket.limiter
	}

	bucket := &clientBucket{
		limiter:  rate.NewLimiter(rate.Limit(rl.rate), rl.burst),
		lastSeen: time.Now(),
	}
	if rl.clients == nil {
		rl.clients = make(map[string]*clientBucket)
	}
	rl.clients[key] = bucket
	return bucket.limiter
}

// clientKey identifies the caller. API keys are truncated to a stable
// prefix so full credentials never reach the limiter map or the logs.
func clientKey(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		if len(apiKey) > 8 {
			apiKey = apiKey[:8]
		}
		return "api:" + apiKey
	}

	// Behind the API gateway the client address arrives forwarded.
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return "ip:" + forwarded
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func (rl *RateLimiter) writeHeaders(c *gin.Context, remaining int) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Second).Unix()))
}

// Middleware enforces the limit on every route except the health probes,
// which load balancers poll on their own schedule.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		key := clientKey(c)
		limiter := rl.bucketFor(key)

		if !limiter.Allow() {
			if logger.Log != nil {
				logger.Log.Warn("Rate limit exceeded",
					zap.String("client_id", key),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("client_ip", c.ClientIP()),
				)
			}

			rl.writeHeaders(c, 0)
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": 1,
			})
			c.Abort()
			return
		}

		rl.writeHeaders(c, int(limiter.Tokens()))
		c.Next()
	}
}

// MiddlewareWithConfig enforces a route-specific rate in place of the
// limiter's own, for endpoints whose cost differs from the rest of the
// API.
func (rl *RateLimiter) MiddlewareWithConfig(customRate, customBurst int) gin.HandlerFunc {
	override := &RateLimiter{
		clients:    make(map[string]*clientBucket),
		rate:       customRate,
		burst:      customBurst,
		sweepEvery: rl.sweepEvery,
	}
	go override.sweep()
	return override.Middleware()
}

// Shared limiter tiers. Engine runs sit behind the strict tier because
// each one fans out into a full multi-year ledger evaluation.
var (
	DefaultRateLimiter = NewRateLimiter(100, 200)
	StrictRateLimiter  = NewRateLimiter(10, 20)
	RelaxedRateLimiter = NewRateLimiter(500, 1000)
)
