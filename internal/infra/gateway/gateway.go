// Package gateway serves the mirrored catalog over MCP stdio. Every catalog
// entry becomes one MCP tool; a search meta tool lets clients discover
// routes by keyword before calling them.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/buildinfo"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/discovery"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/mcpcodec"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

const searchToolName = "search_tools"

// CatalogSource feeds the gateway with catalog builds.
type CatalogSource interface {
	Snapshot() discovery.Snapshot
	Watch(ctx context.Context) <-chan discovery.Snapshot
}

// Backend resolves catalog entries to their route declarations and executes
// them. The app layer implements it on top of the schema executor and the
// response cache.
type Backend interface {
	RouteFor(entry domain.CatalogEntry) (domain.RouteSpec, bool)
	Call(ctx context.Context, entry domain.CatalogEntry, args map[string]any) (*domain.InvokeResult, error)
}

type Gateway struct {
	logger  *zap.Logger
	source  CatalogSource
	backend Backend
	metrics domain.Metrics
}

func New(logger *zap.Logger, source CatalogSource, backend Backend, metrics domain.Metrics) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Gateway{
		logger:  logger.Named("gateway"),
		source:  source,
		backend: backend,
		metrics: metrics,
	}
}

// Run serves MCP over stdio until ctx is cancelled or the client hangs up.
func (g *Gateway) Run(ctx context.Context) error {
	if g.source == nil {
		return errors.New("catalog source is required")
	}
	if g.backend == nil {
		return errors.New("backend is required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := g.buildServer(runCtx)

	g.logger.Info("gateway starting (stdio transport)",
		zap.Int("tools", len(g.source.Snapshot().Entries)))
	err := server.Run(runCtx, &mcp.StdioTransport{})
	if err != nil && runCtx.Err() == nil {
		return err
	}
	return nil
}

// buildServer wires the MCP server, registers the search meta tool, applies
// the current catalog build and keeps applying new ones until ctx ends.
func (g *Gateway) buildServer(ctx context.Context) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "flowmcp",
		Version: buildinfo.Version,
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	server.AddTool(searchTool(), g.handleSearch)

	syncer := newToolSync(server, g.toolHandler, g.logger)
	snapshot := g.source.Snapshot()
	syncer.Apply(snapshot.ETag, g.toolsFor(snapshot))

	updates := g.source.Watch(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				syncer.Apply(snapshot.ETag, g.toolsFor(snapshot))
			}
		}
	}()

	return server
}

// toolsFor converts the entries of one build into MCP tool declarations.
// Entries whose schema no longer loads are skipped; they come back with the
// next rebuild once the mirror heals.
func (g *Gateway) toolsFor(snapshot discovery.Snapshot) []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		if entry.ToolName == searchToolName {
			g.logger.Warn("catalog tool shadows the search meta tool, skipping",
				zap.String("toolRef", entry.ToolRef),
				zap.String("schema", entry.SchemaRef))
			continue
		}
		route, ok := g.backend.RouteFor(entry)
		if !ok {
			g.logger.Warn("catalog entry without a loadable route, skipping",
				zap.String("tool", entry.ToolName),
				zap.String("schema", entry.SchemaRef))
			continue
		}
		tools = append(tools, mcpcodec.ToolFromCatalog(entry, route))
	}
	return tools
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entry, ok := g.entryFor(name)
		if !ok {
			err := domain.E(domain.CodeNotFound, "call "+name, "tool is no longer in the catalog", domain.ErrToolNotFound).
				WithHint("the mirror changed; list tools again to see the current catalog")
			return errorResult(err), nil
		}

		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(domain.E(domain.CodeInvalidArgument, "call "+name, "arguments must be a JSON object", err)), nil
			}
		}

		started := time.Now()
		result, err := g.backend.Call(ctx, entry, args)
		g.logger.Debug("tool call finished",
			zap.String("tool", name),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		if err != nil {
			return errorResult(err), nil
		}
		return invokeResult(result), nil
	}
}

// entryFor resolves a registered tool name against the current build. Calls
// can race a rebuild, so resolution happens per call rather than at
// registration time.
func (g *Gateway) entryFor(name string) (domain.CatalogEntry, bool) {
	for _, entry := range g.source.Snapshot().Entries {
		if entry.ToolName == name {
			return entry, true
		}
	}
	return domain.CatalogEntry{}, false
}

func searchTool() *mcp.Tool {
	return &mcp.Tool{
		Name: searchToolName,
		Description: "Find tools by keyword before calling them. Matches namespaces, " +
			"route names, tags, schema names, descriptions and shared-list aliases " +
			"such as country names or currency codes.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "whitespace separated keywords, e.g. \"bitcoin price\"",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (g *Gateway) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(domain.E(domain.CodeInvalidArgument, searchToolName, "arguments must be a JSON object with a query string", err)), nil
		}
	}

	snapshot := g.source.Snapshot()
	started := time.Now()
	result := discovery.Search(args.Query, snapshot.Entries, snapshot.Aliases)
	g.metrics.ObserveSearch(time.Since(started), result.TotalMatches)

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, domain.E(domain.CodeInternal, searchToolName, "encode search result", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		StructuredContent: result,
	}, nil
}

// invokeResult maps an executor outcome onto the MCP result shape. Route
// level failures (validation, upstream HTTP errors) become tool errors with
// the collected messages as text.
func invokeResult(result *domain.InvokeResult) *mcp.CallToolResult {
	if result == nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "empty invoke result"}},
		}
	}
	if !result.OK {
		text := strings.Join(result.Messages, "\n")
		if text == "" {
			text = "route invocation failed"
		}
		return &mcp.CallToolResult{
			IsError:           true,
			Content:           []mcp.Content{&mcp.TextContent{Text: text}},
			StructuredContent: result,
		}
	}
	text := string(result.Data)
	if text == "" {
		text = "null"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	text := err.Error()
	if hint := domain.HintFrom(err); hint != "" {
		text += "\nhint: " + hint
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
