package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// bucketIdleTTL is how long an IP's bucket may sit unused before the
// sweeper discards it.
const bucketIdleTTL = 10 * time.Minute

// clientBucket is one IP's token-bucket state. Tokens refill continuously
// at the limiter's rate and are spent one per request.
type clientBucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter applies a per-IP token bucket in front of the evaluate
// endpoint. This guards the API against burst abuse from a single
// caller; the domain-level velocity evaluator handles per-user
// transaction bursts separately.
type RateLimiter struct {
	mu      sync.Mutex
	rate    float64 // tokens per second
	burst   float64
	buckets map[string]*clientBucket
}

// NewRateLimiter allows ratePerMin requests per minute per IP with a
// burst allowance of burst requests, and starts the idle-bucket sweeper.
func NewRateLimiter(ratePerMin, burst int) *RateLimiter {
	rl := &RateLimiter{
		rate:    float64(ratePerMin) / 60.0,
		burst:   float64(burst),
		buckets: make(map[string]*clientBucket),
	}
	go rl.sweep()
	return rl
}

// allow spends one token for ip, reporting whether the request may
// proceed and, if not, how long until a token becomes available.
func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &clientBucket{tokens: rl.burst, lastRefill: now}
		rl.buckets[ip] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	wait := time.Duration((1-b.tokens)/rl.rate*float64(time.Second))
	return false, wait
}

// Middleware returns the Gin handler enforcing the limit. Rejected
// requests get a 429 with a Retry-After header.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.allow(c.ClientIP())
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": retryAfter.String(),
			})
			return
		}
		c.Next()
	}
}

// sweep drops buckets that have sat idle past bucketIdleTTL so transient
// IPs don't accumulate forever.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(bucketIdleTTL)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-bucketIdleTTL)
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}
