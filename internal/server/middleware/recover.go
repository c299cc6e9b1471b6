package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
)

// Recover turns a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(logger *slog.Logger, msgs *errcode.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				writeEnvelope(w, http.StatusInternalServerError, errcode.Internal, msgs)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
