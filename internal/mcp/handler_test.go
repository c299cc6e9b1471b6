package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// stubSessions treats "good-<token>" as a valid bearer for admin 7 and keeps
// a set of live session tokens.
type stubSessions struct {
	live map[string]model.Profile
}

func (s *stubSessions) VerifyToken(raw string) (model.Payload, bool) {
	if !strings.HasPrefix(raw, "good-") {
		return model.Payload{}, false
	}
	return model.Payload{AdminID: 7, Token: strings.TrimPrefix(raw, "good-")}, true
}

func (s *stubSessions) IntrospectPayload(_ context.Context, p model.Payload) (model.Profile, error) {
	prof, ok := s.live[p.Token]
	if !ok {
		return model.Profile{}, errors.New("unauthenticated")
	}
	return prof, nil
}

func (s *stubSessions) Logout(_ context.Context, p model.Payload) error {
	delete(s.live, p.Token)
	return nil
}

func newTestServer(t *testing.T) (*MCPServer, *stubSessions) {
	t.Helper()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		a := &model.Admin{RoleID: 1, Name: "admin" + email[:1], PasswordHash: "X", Email: email, Phone: "13800000000"}
		if i != 1 {
			a.Enabled = model.AdminEnabled
		}
		if err := store.CreateAdmin(ctx, a); err != nil {
			t.Fatalf("CreateAdmin: %v", err)
		}
	}

	sessions := &stubSessions{live: map[string]model.Profile{
		"tok": {AdminID: 7, AdminName: "bigcat", Email: "bigcat@example.com"},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMCPServer(sessions, store, "test", logger), sessions
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

// ---------------------------------------------------------------------------
// Token tools
// ---------------------------------------------------------------------------

func TestVerifyToken(t *testing.T) {
	s, _ := newTestServer(t)

	text, isErr := callTool(t, s.handleVerifyToken, map[string]interface{}{"token": "Bearer good-tok"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var p model.Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p != (model.Payload{AdminID: 7, Token: "tok"}) {
		t.Errorf("payload = %+v", p)
	}

	if _, isErr := callTool(t, s.handleVerifyToken, map[string]interface{}{"token": "forged"}); !isErr {
		t.Error("forged token verified")
	}
	if text, isErr := callTool(t, s.handleVerifyToken, map[string]interface{}{}); !isErr || !strings.Contains(text, "token") {
		t.Errorf("missing token: isErr=%v text=%q", isErr, text)
	}
}

func TestIntrospectAndRevoke(t *testing.T) {
	s, sessions := newTestServer(t)
	args := map[string]interface{}{"token": "good-tok"}

	text, isErr := callTool(t, s.handleIntrospectSession, args)
	if isErr || !strings.Contains(text, "bigcat") {
		t.Fatalf("introspect live: isErr=%v text=%s", isErr, text)
	}

	if text, isErr := callTool(t, s.handleRevokeSession, args); isErr || !strings.Contains(text, `"revoked": true`) {
		t.Fatalf("revoke: isErr=%v text=%s", isErr, text)
	}
	if _, ok := sessions.live["tok"]; ok {
		t.Error("session still live after revoke")
	}

	// Signature still good, session gone.
	if _, isErr := callTool(t, s.handleVerifyToken, args); isErr {
		t.Error("verify should not depend on the session")
	}
	if _, isErr := callTool(t, s.handleIntrospectSession, args); !isErr {
		t.Error("introspect succeeded for a revoked session")
	}
	// Revoking twice is fine.
	if _, isErr := callTool(t, s.handleRevokeSession, args); isErr {
		t.Error("second revoke failed")
	}
}

// ---------------------------------------------------------------------------
// Directory tools
// ---------------------------------------------------------------------------

func TestLookupAdmin(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr bool
		want    string
	}{
		{"by id", map[string]interface{}{"admin_id": 2}, false, "b@example.com"},
		{"by email", map[string]interface{}{"email": "c@example.com"}, false, `"status": "enabled"`},
		{"pending", map[string]interface{}{"admin_id": 2}, false, `"status": "pending"`},
		{"unknown", map[string]interface{}{"admin_id": 99}, true, "No admin"},
		{"no key", map[string]interface{}{}, true, "Provide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callTool(t, s.handleLookupAdmin, tt.args)
			if isErr != tt.wantErr {
				t.Fatalf("isErr = %v, want %v: %s", isErr, tt.wantErr, text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("result %q does not contain %q", text, tt.want)
			}
			if strings.Contains(text, "password") {
				t.Error("credential hash leaked")
			}
		})
	}
}

func TestListAdmins(t *testing.T) {
	s, _ := newTestServer(t)

	list := func(args map[string]interface{}) []adminSummary {
		t.Helper()
		text, isErr := callTool(t, s.handleListAdmins, args)
		if isErr {
			t.Fatalf("tool error: %s", text)
		}
		var out []adminSummary
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	if got := list(nil); len(got) != 3 {
		t.Errorf("all = %d admins, want 3", len(got))
	}
	if got := list(map[string]interface{}{"status": "enabled"}); len(got) != 2 {
		t.Errorf("enabled = %d admins, want 2", len(got))
	}
	got := list(map[string]interface{}{"limit": 1, "offset": 1})
	if len(got) != 1 || got[0].AdminID != 2 {
		t.Errorf("page = %+v, want admin 2", got)
	}

	if _, isErr := callTool(t, s.handleListAdmins, map[string]interface{}{"status": "banned"}); !isErr {
		t.Error("unknown status accepted")
	}
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func TestAdminResources(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = adminsURI
	contents, err := s.handleAdminsResource(ctx, req)
	if err != nil {
		t.Fatalf("admins resource: %v", err)
	}
	if text := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(text, "c@example.com") {
		t.Errorf("directory missing admin: %s", text)
	}

	req.Params.URI = adminURIPrefix + "1"
	contents, err = s.handleAdminResource(ctx, req)
	if err != nil {
		t.Fatalf("admin resource: %v", err)
	}
	if text := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(text, "a@example.com") {
		t.Errorf("admin 1 = %s", text)
	}

	for _, uri := range []string{adminURIPrefix + "abc", adminURIPrefix + "0", "gatekeeper://other/1"} {
		req.Params.URI = uri
		if _, err := s.handleAdminResource(ctx, req); err == nil {
			t.Errorf("%s: expected error", uri)
		}
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      int
		min      int
		max      int
		expected int
	}{
		{"value in range", 5, 1, 10, 5},
		{"value below min", -3, 1, 10, 1},
		{"value above max", 15, 1, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clamp(tt.val, tt.min, tt.max); got != tt.expected {
				t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.expected)
			}
		})
	}
}

func TestAnnotations(t *testing.T) {
	ro := readOnlyAnnotation()
	if ro.ReadOnlyHint == nil || !*ro.ReadOnlyHint {
		t.Error("read-only annotation not read-only")
	}
	d := destructiveAnnotation()
	if d.ReadOnlyHint == nil || *d.ReadOnlyHint || d.DestructiveHint == nil || !*d.DestructiveHint {
		t.Errorf("destructive annotation = %+v", d)
	}
}
