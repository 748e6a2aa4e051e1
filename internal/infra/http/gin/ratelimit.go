package ginserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Identified callers are keyed by user id,
// anonymous ones by client IP.
type RateLimiter struct {
	Rate   rate.Limit
	Burst  int
	Logger *slog.Logger

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastPrune time.Time
}

func NewRateLimiter(perSecond float64, burst int, logger *slog.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		Rate:    rate.Limit(perSecond),
		Burst:   burst,
		Logger:  logger,
		clients: make(map[string]*clientLimiter),
	}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		if !rl.allow(key, time.Now()) {
			if rl.Logger != nil {
				rl.Logger.Warn("rate limit exceeded", "client", key, "path", c.FullPath())
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Kind: "rate_limited", Error: "too_many_requests", Detail: "slow down"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if now.Sub(rl.lastPrune) > limiterIdleTTL {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastPrune = now
	}
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.Rate, rl.Burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func clientKey(c *gin.Context) string {
	if a := currentActor(c); a.ID != "" {
		return "user:" + string(a.ID)
	}
	return "ip:" + c.ClientIP()
}
