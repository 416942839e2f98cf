package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidbrief/vidbrief/internal/pipeline"
	"golang.org/x/time/rate"
)

const (
	// clientIdleTTL is how long an idle client's limiter survives before
	// being pruned.
	clientIdleTTL = 2 * time.Hour
	// pruneEvery bounds how often the prune pass runs.
	pruneEvery = 10 * time.Minute
)

// clientEntry holds the rate limiter state for one client address.
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// quotaGuard meters free-tier usage: each client address gets perHour
// requests per hour across the stage endpoints. Requests carrying an
// accepted entitlement token bypass the limiter entirely.
type quotaGuard struct {
	mu        sync.Mutex
	clients   map[string]*clientEntry
	lastPrune time.Time

	perHour  int
	accepted map[string]struct{}
}

// newQuotaGuard creates a guard allowing perHour stage requests per client
// per hour. When accepted is empty, any non-empty token is honored (payment
// validation is a stub; the token itself is opaque).
func newQuotaGuard(perHour int, accepted []string) *quotaGuard {
	tokens := make(map[string]struct{}, len(accepted))
	for _, t := range accepted {
		if t != "" {
			tokens[t] = struct{}{}
		}
	}

	return &quotaGuard{
		clients:   make(map[string]*clientEntry),
		lastPrune: time.Now(),
		perHour:   perHour,
		accepted:  tokens,
	}
}

// entitled reports whether the token bypasses free-tier metering.
func (g *quotaGuard) entitled(token string) bool {
	if token == "" {
		return false
	}
	if len(g.accepted) == 0 {
		return true
	}

	_, ok := g.accepted[token]

	return ok
}

// allow consumes one request from the client's hourly budget.
func (g *quotaGuard) allow(clientIP string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if now.Sub(g.lastPrune) > pruneEvery {
		g.prune(now)
	}

	entry, ok := g.clients[clientIP]
	if !ok {
		entry = &clientEntry{
			limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(g.perHour)), g.perHour),
		}
		g.clients[clientIP] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

// prune drops limiters for clients not seen within clientIdleTTL.
// Caller holds the lock.
func (g *quotaGuard) prune(now time.Time) {
	for ip, entry := range g.clients {
		if now.Sub(entry.lastSeen) > clientIdleTTL {
			delete(g.clients, ip)
		}
	}
	g.lastPrune = now
}

// middleware rejects over-quota free-tier requests with 429.
func (g *quotaGuard) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.entitled(c.GetHeader(pipeline.EntitlementHeader)) {
			c.Next()
			return
		}

		if !g.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf(
					"free tier limit of %d requests per hour reached; upgrade for unlimited access",
					g.perHour,
				),
			})
			return
		}

		c.Next()
	}
}
