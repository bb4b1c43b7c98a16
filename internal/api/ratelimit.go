package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxClients = 10000
	defaultIdleTTL    = 15 * time.Minute
)

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	// MaxClients caps how many client buckets are tracked; the least recently
	// seen client is forgotten first.
	MaxClients int
	// IdleTTL resets a client's bucket after this long without requests.
	IdleTTL time.Duration
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// clientLimiter hands out one token bucket per client key.
type clientLimiter struct {
	mu      sync.Mutex
	refill  rate.Limit
	burst   int
	idleTTL time.Duration
	buckets *lru.Cache[string, *bucket]
	now     func() time.Time
}

func newClientLimiter(cfg RateLimitConfig) (*clientLimiter, error) {
	size := cfg.MaxClients
	if size <= 0 {
		size = defaultMaxClients
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = defaultIdleTTL
	}
	buckets, err := lru.New[string, *bucket](size)
	if err != nil {
		return nil, err
	}
	return &clientLimiter{
		refill:  rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:   cfg.Burst,
		idleTTL: idle,
		buckets: buckets,
		now:     time.Now,
	}, nil
}

// take spends one token for key and reports whether the request may go on.
func (l *clientLimiter) take(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets.Get(key)
	if !ok || now.Sub(b.lastSeen) > l.idleTTL {
		b = &bucket{tokens: rate.NewLimiter(l.refill, l.burst)}
		l.buckets.Add(key, b)
	}
	b.lastSeen = now
	return b.tokens.AllowN(now, 1)
}

// rateLimit rejects clients that exceed their budget. It runs before
// authentication, so clients are keyed by address.
func (s *Server) rateLimit() gin.HandlerFunc {
	cfg := s.cfg.RateLimit
	if cfg.RequestsPerMinute <= 0 || cfg.Burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter, err := newClientLimiter(cfg)
	if err != nil {
		s.logger.Error("Rate limiting disabled", zap.Error(err))
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if !limiter.take("ip:" + c.ClientIP()) {
			s.abort(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		c.Next()
	}
}
