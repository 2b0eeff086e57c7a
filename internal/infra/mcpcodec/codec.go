// Package mcpcodec renders catalog entries as MCP wire declarations.
package mcpcodec

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/schema"
)

// ToolFromCatalog converts one catalog entry into an MCP tool declaration.
// The input schema comes from the route's compiled parameter specs, so MCP
// clients see the same validation surface the CLI enforces.
func ToolFromCatalog(entry domain.CatalogEntry, route domain.RouteSpec) *mcp.Tool {
	method := strings.ToUpper(route.Method)
	return &mcp.Tool{
		Name:        entry.ToolName,
		Description: toolDescription(entry, route),
		InputSchema: schema.CompileParams(route).JSONSchema(),
		Annotations: &mcp.ToolAnnotations{
			Title:        entry.ToolRef,
			ReadOnlyHint: method == "GET" || method == "HEAD",
		},
	}
}

// toolDescription prefers the route's own description and falls back to
// schema metadata so no tool shows up blank in a client.
func toolDescription(entry domain.CatalogEntry, route domain.RouteSpec) string {
	if desc := strings.TrimSpace(route.Description); desc != "" {
		return desc
	}
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		return desc
	}
	return fmt.Sprintf("%s %s via %s", strings.ToUpper(route.Method), route.Path, entry.Namespace)
}
