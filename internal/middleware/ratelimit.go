package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitors tracks one token bucket per client IP. Entries for IPs not
// seen recently are evicted so the map stays bounded.
type visitors struct {
	mu      sync.Mutex
	entries map[string]*visitor
	rate    rate.Limit
	burst   int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newVisitors(r rate.Limit, burst int) *visitors {
	v := &visitors{
		entries: make(map[string]*visitor),
		rate:    r,
		burst:   burst,
	}
	go v.evictStale()
	return v
}

func (v *visitors) limiterFor(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.entries[ip]
	if !ok {
		e = &visitor{limiter: rate.NewLimiter(v.rate, v.burst)}
		v.entries[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// evictStale drops visitors idle for over 10 minutes, checking every 5.
func (v *visitors) evictStale() {
	for {
		time.Sleep(5 * time.Minute)
		v.mu.Lock()
		for ip, e := range v.entries {
			if time.Since(e.lastSeen) > 10*time.Minute {
				delete(v.entries, ip)
			}
		}
		v.mu.Unlock()
	}
}

// RateLimit returns middleware that throttles requests per client IP.
// r is the sustained allowance, burst the instantaneous ceiling.
//
// The login and register routes use RateLimit(rate.Every(12*time.Second), 5),
// roughly five attempts per minute per IP.
func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	v := newVisitors(r, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !v.limiterFor(clientIP(req)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// clientIP resolves the originating address. Behind a reverse proxy the
// first entry of X-Forwarded-For is the real client.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return xff
	}
	return r.RemoteAddr
}
