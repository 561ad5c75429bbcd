package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

// RateLimitMiddleware caps requests per user and IP with a sliding window
// kept in store. It guards the API as a whole; the per-operation limits
// for analysis and saving live in the application layer.
func RateLimitMiddleware(store ratelimit.Store, maxRequests int, window time.Duration, log zerolog.Logger) func(http.Handler) http.Handler {
	base := ratelimit.Config{MaxRequests: maxRequests, Window: window, StorageKey: "reelscript_http"}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) || maxRequests <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			// Use user + IP as rate limit key
			key := GetUserFromContext(r.Context()) + ":" + clientIP(r)
			lim, err := ratelimit.New(base.Scoped(key), store, ratelimit.WithLogger(log))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if !lim.Record(r.Context()).Allowed() {
				d := lim.Check(r.Context())
				te := &analysis.ThrottledError{Message: d.Message, ResetAt: d.ResetAt}
				w.Header().Set("Retry-After", strconv.Itoa(te.RetryAfter(time.Now())))
				writeError(w, http.StatusTooManyRequests, d.Message, "rate_limited")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
