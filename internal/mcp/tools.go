package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
)

// registerTools registers all session and directory tools on srv.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Token tools -----

	srv.AddTool(
		mcp.NewTool("gatekeeper_verify_token",
			mcp.WithDescription(
				"Check the signature and expiry of a bearer token and return its "+
					"payload (admin_id and session token). This does not consult the "+
					"session cache, so a logged-out token still verifies here.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("token",
				mcp.Required(),
				mcp.Description("Bearer token, with or without the \"Bearer \" prefix"),
			),
		),
		s.handleVerifyToken,
	)

	srv.AddTool(
		mcp.NewTool("gatekeeper_introspect_session",
			mcp.WithDescription(
				"Verify a bearer token and return the cached admin profile of its "+
					"session. Fails when the session was logged out, replaced or expired.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("token",
				mcp.Required(),
				mcp.Description("Bearer token, with or without the \"Bearer \" prefix"),
			),
		),
		s.handleIntrospectSession,
	)

	srv.AddTool(
		mcp.NewTool("gatekeeper_revoke_session",
			mcp.WithDescription(
				"Log out the session named by a bearer token. Both session cache "+
					"entries are removed; revoking an already dead session succeeds.",
			),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithString("token",
				mcp.Required(),
				mcp.Description("Bearer token of the session to end"),
			),
		),
		s.handleRevokeSession,
	)

	// ----- Directory tools -----

	srv.AddTool(
		mcp.NewTool("gatekeeper_lookup_admin",
			mcp.WithDescription(
				"Look up one admin by id or by email. Returns name, contact details, "+
					"role and whether the account is pending or enabled.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("admin_id",
				mcp.Description("Admin id. Takes precedence over email."),
			),
			mcp.WithString("email",
				mcp.Description("Admin email address"),
			),
		),
		s.handleLookupAdmin,
	)

	srv.AddTool(
		mcp.NewTool("gatekeeper_list_admins",
			mcp.WithDescription(
				"List admin accounts ordered by id, optionally filtered by status.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("status",
				mcp.Description("Only return admins in this state"),
				mcp.Enum("pending", "enabled"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of admins to return (default 50, max 500)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Number of admins to skip for pagination"),
			),
		),
		s.handleListAdmins,
	)
}

// --------------------------------------------------------------------------
// Token handlers
// --------------------------------------------------------------------------

func (s *MCPServer) verify(request mcp.CallToolRequest) (model.Payload, *mcp.CallToolResult) {
	raw, err := requireString(request, "token")
	if err != nil {
		res, _ := toolError("%v", err)
		return model.Payload{}, res
	}
	p, ok := s.sessions.VerifyToken(bearer(raw))
	if !ok {
		res, _ := toolError("Token is not valid: bad signature, wrong algorithm, malformed or expired.")
		return model.Payload{}, res
	}
	return p, nil
}

func (s *MCPServer) handleVerifyToken(
	_ context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	p, failed := s.verify(request)
	if failed != nil {
		return failed, nil
	}
	return successJSON(p)
}

func (s *MCPServer) handleIntrospectSession(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	p, failed := s.verify(request)
	if failed != nil {
		return failed, nil
	}
	profile, err := s.sessions.IntrospectPayload(ctx, p)
	if err != nil {
		return toolError("Token verifies but session %q for admin %d is not live: %v", p.Token, p.AdminID, err)
	}
	return successJSON(profile)
}

func (s *MCPServer) handleRevokeSession(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	p, failed := s.verify(request)
	if failed != nil {
		return failed, nil
	}
	if err := s.sessions.Logout(ctx, p); err != nil {
		return toolError("Failed to revoke session: %v", err)
	}
	s.logger.Info("session revoked over MCP", "admin_id", p.AdminID)
	return successJSON(map[string]interface{}{
		"admin_id": p.AdminID,
		"revoked":  true,
	})
}

// --------------------------------------------------------------------------
// Directory handlers
// --------------------------------------------------------------------------

func (s *MCPServer) handleLookupAdmin(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	id := int64(optionalInt(request, "admin_id", 0))
	email := optionalString(request, "email")

	var (
		admin *model.Admin
		err   error
	)
	switch {
	case id > 0:
		admin, err = s.admins.GetAdmin(ctx, id)
	case email != "":
		admin, err = s.admins.GetAdminByEmail(ctx, email)
	default:
		return toolError("Provide admin_id or email.")
	}
	if errors.Is(err, config.ErrNotFound) {
		return toolError("No admin matches admin_id=%d email=%q.", id, email)
	}
	if err != nil {
		return toolError("Failed to look up admin: %v", err)
	}
	return successJSON(summarize(admin))
}

func (s *MCPServer) handleListAdmins(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	status := optionalString(request, "status")
	if status != "" && status != "pending" && status != "enabled" {
		return toolError("Unknown status %q. Use \"pending\" or \"enabled\".", status)
	}
	limit := clamp(optionalInt(request, "limit", 50), 1, 500)
	offset := optionalInt(request, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return toolError("Failed to list admins: %v", err)
	}

	items := make([]adminSummary, 0, limit)
	skipped := 0
	for i := range admins {
		sum := summarize(&admins[i])
		if status != "" && sum.Status != status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(items) == limit {
			break
		}
		items = append(items, sum)
	}
	return successJSON(items)
}
