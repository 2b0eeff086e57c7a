package app

import (
	"context"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// catalogBackend adapts the invocation pipeline to the MCP gateway.
// Gateway calls always go through the cache read and use the configured
// TTL; there is no refresh flag on the wire.
type catalogBackend struct {
	app *App
}

func (b *catalogBackend) RouteFor(entry domain.CatalogEntry) (domain.RouteSpec, bool) {
	doc, err := b.app.loadSchemaDoc(entry.SchemaRef)
	if err != nil {
		return domain.RouteSpec{}, false
	}
	route, ok := doc.Routes[entry.RouteName]
	return route, ok
}

func (b *catalogBackend) Call(ctx context.Context, entry domain.CatalogEntry, args map[string]any) (*domain.InvokeResult, error) {
	out, err := b.app.invokeEntry(ctx, entry, args, false, 0)
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}
