package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// writeEnvelope renders a failure envelope. It lives here rather than in the
// handler package to avoid an import cycle.
func writeEnvelope(w http.ResponseWriter, status int, code errcode.Code, msgs *errcode.Catalog) {
	if msgs == nil {
		msgs = errcode.Default()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Envelope{
		Code:    int(code),
		Message: msgs.Message(code),
	})
}
