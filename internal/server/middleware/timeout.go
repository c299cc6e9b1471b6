package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
)

// Timeout cancels the request context after d. If the deadline passed and the
// handler has not written a response yet, it answers 504 with the standard
// envelope. Handlers must watch ctx.Done() for the cancellation to matter.
func Timeout(d time.Duration, msgs *errcode.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				cancel()
				if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
					writeEnvelope(ww, http.StatusGatewayTimeout, errcode.Timeout, msgs)
				}
			}()
			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
