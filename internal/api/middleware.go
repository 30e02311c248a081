package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	contextRequest  = "requestId"
)

// RequestID propagates the client's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(contextRequest, id)
		c.Next()
	}
}

// RequestLogger writes one structured log entry per request.
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(contextRequest),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": float64(time.Since(start)) / float64(time.Millisecond),
			"ip":         c.ClientIP(),
			"size":       c.Writer.Size(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}

// CORS allows the configured web origins.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Idle buckets are dropped
// by a background janitor until Close.
type RateLimiter struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &RateLimiter{
		entries:    make(map[string]*limiterEntry),
		limit:      rate.Limit(rps),
		burst:      burst,
		staleAfter: 10 * time.Minute,
		stop:       make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *RateLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.cleanup(time.Now())
		}
	}
}

func (l *RateLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-l.staleAfter)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[key]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.entries[key] = &limiterEntry{limiter: lim, lastSeen: time.Now()}
	return lim
}

// Middleware rejects clients over their budget with 429. Preflight requests
// and the health check are not counted.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		if !l.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// Close stops the janitor.
func (l *RateLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}
