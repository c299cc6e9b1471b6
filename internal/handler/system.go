package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/keys"
)

// Pinger is a dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health probes, the JWK set and the API description.
type SystemHandler struct {
	deps    map[string]Pinger
	keys    *keys.Material
	openapi []byte
	logger  *slog.Logger
}

// NewSystemHandler creates a new SystemHandler. The OpenAPI document is
// rendered once here.
func NewSystemHandler(deps map[string]Pinger, m *keys.Material, doc *openapi3.T, logger *slog.Logger) (*SystemHandler, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return &SystemHandler{deps: deps, keys: m, openapi: raw, logger: logger}, nil
}

// Healthz reports that the process is serving.
// GET /healthz
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings every dependency and reports 503 if any is unreachable.
// GET /readyz
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.deps[name].Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			h.logger.WarnContext(r.Context(), "readiness check failed", "dependency", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{"status": overall, "checks": checks})
}

// JWKS publishes the token verify key.
// GET /.well-known/jwks.json
func (h *SystemHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, h.keys.JWKS())
}

// OpenAPI serves the OpenAPI 3 document.
// GET /openapi.json
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.openapi)
}
