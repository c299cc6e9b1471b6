package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// bearer strips an optional "Bearer " prefix, matching the HTTP header form.
func bearer(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
}

func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// adminSummary is the tool view of an admin. The credential hash never
// leaves the store.
type adminSummary struct {
	AdminID   int64  `json:"admin_id"`
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	RoleID    int64  `json:"role_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func summarize(a *model.Admin) adminSummary {
	status := "pending"
	if a.IsEnabled() {
		status = "enabled"
	}
	return adminSummary{
		AdminID:   a.ID,
		AdminName: a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		RoleID:    a.RoleID,
		Status:    status,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
