package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	respID := rr.Header().Get("X-Request-ID")
	// UUID v7 format check: 36 chars with dashes
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if respID := rr.Header().Get("X-Request-ID"); respID != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, respID)
	}
}

func TestRequestIDReplacesOversizedClientID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("expected a generated ID, got %q", got)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string from bare context, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// Authenticate / RequireLiveSession tests
// ---------------------------------------------------------------------------

type stubVerifier map[string]model.Payload

func (s stubVerifier) Verify(raw string) (model.Payload, bool) {
	p, ok := s[raw]
	return p, ok
}

type stubSessions map[string]model.Profile

func (s stubSessions) IntrospectPayload(_ context.Context, p model.Payload) (model.Profile, error) {
	prof, ok := s[p.Token]
	if !ok {
		return model.Profile{}, errors.New("no session")
	}
	return prof, nil
}

var validPayload = model.Payload{AdminID: 7, Token: "tok"}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) model.Envelope {
	t.Helper()
	var env model.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestAuthenticateHeaderForms(t *testing.T) {
	verifier := stubVerifier{"good": validPayload}
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"bearer prefix", "Bearer good", http.StatusOK},
		{"bare token", "good", http.StatusOK},
		{"padded", "Bearer   good  ", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"prefix only", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticate(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p := GetPrincipal(r.Context())
				if p == nil || p.AdminID != 7 || p.Token != "tok" {
					t.Errorf("unexpected principal %+v", p)
				}
			}))

			req := httptest.NewRequest("GET", "/admin/logout", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if env := decodeEnvelope(t, rr); env.Code != 401 {
					t.Errorf("envelope code = %d, want 401", env.Code)
				}
			}
		})
	}
}

func TestRequireLiveSession(t *testing.T) {
	verifier := stubVerifier{"live": validPayload, "dead": {AdminID: 7, Token: "gone"}}
	sessions := stubSessions{"tok": {AdminID: 7, AdminName: "bigcat"}}

	chain := func(inner http.Handler) http.Handler {
		return Authenticate(verifier, nil)(RequireLiveSession(sessions, nil)(inner))
	}

	t.Run("live", func(t *testing.T) {
		handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetProfile(r.Context())
			if p == nil || p.AdminName != "bigcat" {
				t.Errorf("unexpected profile %+v", p)
			}
		}))
		req := httptest.NewRequest("GET", "/admin/my", nil)
		req.Header.Set("Authorization", "Bearer live")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("logged out", func(t *testing.T) {
		handler := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("inner handler should not be called for a dead session")
		}))
		req := httptest.NewRequest("GET", "/admin/my", nil)
		req.Header.Set("Authorization", "Bearer dead")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("without authenticate", func(t *testing.T) {
		handler := RequireLiveSession(sessions, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("inner handler should not be called without a principal")
		}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/my", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// GetPrincipal tests
// ---------------------------------------------------------------------------

func TestGetPrincipalWithValue(t *testing.T) {
	expected := &Principal{AdminID: 42, Token: "t"}
	ctx := context.WithValue(context.Background(), AuthPrincipalKey, expected)

	got := GetPrincipal(ctx)
	if got == nil {
		t.Fatal("expected non-nil principal")
	}
	if got.Payload() != (model.Payload{AdminID: 42, Token: "t"}) {
		t.Errorf("unexpected payload %+v", got.Payload())
	}
}

func TestGetPrincipalWithoutValue(t *testing.T) {
	if GetPrincipal(context.Background()) != nil {
		t.Error("expected nil principal from bare context")
	}
	if GetProfile(context.Background()) != nil {
		t.Error("expected nil profile from bare context")
	}
}

// ---------------------------------------------------------------------------
// Recover / RateLimit / Logger tests
// ---------------------------------------------------------------------------

func TestRecoverReturnsEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Recover(logger, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != 500 {
		t.Errorf("envelope code = %d, want 500", env.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestTimeoutReturnsEnvelope(t *testing.T) {
	handler := Timeout(10*time.Millisecond, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/my", nil))

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Code != 504 || env.Message != "Request timed out" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestTimeoutKeepsWrittenResponse(t *testing.T) {
	handler := Timeout(10*time.Millisecond, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/my", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("unexpected body after handler response: %s", rr.Body.String())
	}
}

func TestTimeoutPassesFastRequests(t *testing.T) {
	handler := Timeout(time.Second, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	handler := RateLimit(2, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/admin/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status sequence = %v, want [200 200 429]", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/admin/login", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d limited with limiting disabled", i)
		}
	}
}

func TestLoggerRecordsAdmin(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	verifier := stubVerifier{"good": validPayload}

	handler := Logger(logger)(Authenticate(verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("POST", "/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("User-Agent", "gatekeeper-test")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v\n%s", err, buf.String())
	}
	if line["status"] != float64(204) {
		t.Errorf("status = %v, want 204", line["status"])
	}
	if line["admin_id"] != float64(7) {
		t.Errorf("admin_id = %v, want 7", line["admin_id"])
	}
	if line["user_agent"] != "gatekeeper-test" {
		t.Errorf("user_agent = %v", line["user_agent"])
	}
}
