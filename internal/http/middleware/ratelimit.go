// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-user token-bucket limiter. Requests are not
// equal: a step-1 upload triggers a chart extraction and a follow-up question
// triggers a generated reply, so routes can be given a token cost above the
// default of 1. Rejections carry a Retry-After computed from the bucket.
//
// The limiter is process-local; buckets idle for longer than the TTL are
// evicted opportunistically.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the resolved user and falls back to the
// client IP. Keys are prefixed so the namespaces never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

// RouteCost prices one route. Suffix is matched against the end of the
// registered Gin route so the API base path does not matter.
type RouteCost struct {
	Method string
	Suffix string
	Tokens int
}

// DefaultRouteCosts prices the routes that call out to slow collaborators.
var DefaultRouteCosts = []RouteCost{
	{Method: http.MethodPost, Suffix: "/sessions/:id/step1", Tokens: 5},
	{Method: http.MethodPost, Suffix: "/products/:slug/versions", Tokens: 3},
	{Method: http.MethodPost, Suffix: "/sessions/:id/follow-ups", Tokens: 2},
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	costs []RouteCost

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	cleanupN uint64
	now      func() time.Time
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (coerced to at least 1), keyed by keyFn, with DefaultRouteCosts.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		costs:    DefaultRouteCosts,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		now:      time.Now,
	}
}

// WithCosts replaces the route price list. Nil or empty makes every request
// cost one token.
func (rl *RateLimiter) WithCosts(costs []RouteCost) *RateLimiter {
	rl.costs = costs
	return rl
}

// cost returns the tokens a request consumes, capped at the burst so an
// expensive route is slow rather than impossible.
func (rl *RateLimiter) cost(c *gin.Context) int {
	route := c.FullPath()
	n := 1
	for _, rc := range rl.costs {
		if rc.Method == c.Request.Method && route != "" && strings.HasSuffix(route, rc.Suffix) {
			n = rc.Tokens
			break
		}
	}
	if n > rl.burst {
		n = rl.burst
	}
	if n < 1 {
		n = 1
	}
	return n
}

// getVisitor returns the limiter for key, creating it if absent. Idle
// buckets are swept every 5000 lookups, before the requested key is touched
// so a stale bucket can be evicted even when it is the one being fetched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay, which is served without consuming tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// retryAfter returns whole seconds until n tokens are available, at least 1.
// With a zero refill rate nothing ever frees up and 60 is advertised.
func retryAfter(lim *rate.Limiter, now time.Time, n int) int {
	r := lim.ReserveN(now, n)
	if !r.OK() {
		return 60
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if d == rate.InfDuration {
		return 60
	}
	if secs := int(math.Ceil(d.Seconds())); secs > 1 {
		return secs
	}
	return 1
}

// Handler enforces the limits. Over-limit requests get 429 with the
// standard error envelope and a Retry-After header.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		n := rl.cost(c)
		lim := rl.getVisitor(rl.keyFn(c))
		now := rl.now()
		if lim.AllowN(now, n) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now, n)))
		SetErrorCode(c, "too_many_requests")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
