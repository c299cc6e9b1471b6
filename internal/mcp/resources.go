package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	adminsURI      = "gatekeeper://admins"
	adminURIPrefix = "gatekeeper://admin/"
)

// registerResources adds read-only views of the admin directory.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			adminsURI,
			"Admin Directory",
			mcp.WithResourceDescription(
				"All admin accounts with their contact details and activation status.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleAdminsResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			adminURIPrefix+"{admin_id}",
			"Admin Account",
			mcp.WithTemplateDescription("A single admin account by id."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleAdminResource,
	)
}

func (s *MCPServer) handleAdminsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	items := make([]adminSummary, len(admins))
	for i := range admins {
		items[i] = summarize(&admins[i])
	}
	return jsonContents(adminsURI, items)
}

func (s *MCPServer) handleAdminResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	raw := strings.TrimPrefix(uri, adminURIPrefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == uri || err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid admin URI %q: expected %s{admin_id}", uri, adminURIPrefix)
	}

	admin, err := s.admins.GetAdmin(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("admin %d: %w", id, err)
	}
	return jsonContents(uri, summarize(admin))
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
