package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Middleware gates requests through the limiter, keyed by client IP and
// path. Paths under exemptPrefix bypass the limiter entirely and are not
// counted. Every limited response carries the X-RateLimit-* headers;
// rejections answer 429 with a Retry-After hint of one window length.
func Middleware(l *Limiter, exemptPrefix string) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.Window().Seconds()))
	limit := strconv.Itoa(l.Limit())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPrefix != "" && strings.HasPrefix(r.URL.Path, exemptPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			identifier := clientIP(r) + ":" + r.URL.Path
			d := l.Check(identifier)

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's middleware.RealIP already rewrites RemoteAddr from
	// X-Forwarded-For / X-Real-IP when present.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
