package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
)

// RateLimit returns an HTTP middleware that limits requests per client IP to
// requestsPerMinute over a sliding window. Rejections use the standard
// envelope with HTTP 429. A non-positive limit disables limiting.
func RateLimit(requestsPerMinute int, msgs *errcode.Catalog) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusTooManyRequests, errcode.TooManyRequests, msgs)
		}),
	)
}
