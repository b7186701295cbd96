package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"smart/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per key within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

// RateLimiter is a per-IP fixed-window limiter.
type RateLimiter struct {
	name    string
	limit   int
	window  time.Duration
	message string

	mu      sync.Mutex
	entries map[string]*rateEntry
}

func NewRateLimiter(name string, limit int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		message: message,
		entries: make(map[string]*rateEntry),
	}
}

// APIRateLimiter: 1000 requests per minute per IP.
func APIRateLimiter() *RateLimiter {
	return NewRateLimiter("api", 1000, time.Minute, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// SessionEventLimiter: 20 auth events per minute per IP.
func SessionEventLimiter() *RateLimiter {
	return NewRateLimiter("sesion", 20, time.Minute, "Demasiados eventos de sesion. Intente en 1 minuto.")
}

func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ok, retry := l.allow(c.ClientIP(), time.Now()); !ok {
			c.Header("Retry-After", retry.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	entry, exists := l.entries[key]
	if !exists {
		entry = &rateEntry{}
		l.entries[key] = entry
	}
	l.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(l.window)
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

// RunPurge removes expired entries every few minutes until ctx ends.
func (l *RateLimiter) RunPurge(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.purge(now); n > 0 {
				log.Debug().Str("limiter", l.name).Int("entries_purged", n).Msg("rate limiter map purged")
			}
		}
	}
}

func (l *RateLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for key, entry := range l.entries {
		entry.mu.Lock()
		if now.After(entry.windowEnd) {
			delete(l.entries, key)
			purged++
		}
		entry.mu.Unlock()
	}
	return purged
}
