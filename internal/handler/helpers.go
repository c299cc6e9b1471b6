package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt64 parses an integer query parameter. A missing parameter is zero.
func queryInt64(r *http.Request, key string) (int64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return 0, nil
	}
	return strconv.ParseInt(val, 10, 64)
}

// responder renders envelopes with messages from one catalogue.
type responder struct {
	msgs   *errcode.Catalog
	logger *slog.Logger
}

func (rs responder) success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, model.Envelope{
		Code:    int(errcode.OK),
		Message: model.SuccessMessage,
		Data:    data,
	})
}

func (rs responder) fail(w http.ResponseWriter, status int, code errcode.Code, data interface{}) {
	writeJSON(w, status, model.Envelope{
		Code:    int(code),
		Message: rs.msgs.Message(code),
		Data:    data,
	})
}

// writeErr maps a service error to its status and code and writes it. Upstream
// and unexpected failures are logged; client mistakes are not.
func (rs responder) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code, data := classify(err)
	if status >= http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", int(code),
			"error", err,
		)
	}
	rs.fail(w, status, code, data)
}

// classify is the single mapping from domain errors to (HTTP status, code,
// envelope data).
func classify(err error) (int, errcode.Code, interface{}) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Code, model.FieldErrors(ve.Fields)
	}
	var ce *service.CodedError
	if errors.As(err, &ce) {
		return statusForKind(ce.Kind), ce.Code, nil
	}
	return http.StatusInternalServerError, errcode.Internal, nil
}

func statusForKind(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindState:
		return http.StatusForbidden
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
