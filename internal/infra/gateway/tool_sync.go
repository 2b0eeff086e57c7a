package gateway

import (
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// toolSync keeps the server's tool list aligned with the latest catalog
// build. It only removes tools it published itself, so meta tools
// registered elsewhere survive every rebuild.
type toolSync struct {
	server  *mcp.Server
	handler func(name string) mcp.ToolHandler
	logger  *zap.Logger

	mu        sync.Mutex
	etag      string
	published []string
}

func newToolSync(server *mcp.Server, handler func(name string) mcp.ToolHandler, logger *zap.Logger) *toolSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &toolSync{
		server:  server,
		handler: handler,
		logger:  logger.Named("toolsync"),
	}
}

// Apply publishes one catalog build. Builds carry an etag; re-applying the
// build already on the server is a no-op. Tools published by the previous
// build but absent from this one get removed.
func (s *toolSync) Apply(etag string, tools []*mcp.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if etag != "" && etag == s.etag {
		return
	}

	published := make([]string, 0, len(tools))
	seen := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if tool == nil || tool.Name == "" || seen[tool.Name] {
			continue
		}
		s.server.AddTool(tool, s.handler(tool.Name))
		seen[tool.Name] = true
		published = append(published, tool.Name)
	}
	sort.Strings(published)

	stale := missingFrom(s.published, published)
	if len(stale) > 0 {
		s.server.RemoveTools(stale...)
	}

	s.published = published
	s.etag = etag
	s.logger.Debug("tool set applied",
		zap.String("etag", etag),
		zap.Int("published", len(published)),
		zap.Int("removed", len(stale)))
}

// missingFrom returns the names in prev that do not appear in next. Both
// slices must be sorted.
func missingFrom(prev, next []string) []string {
	var missing []string
	i := 0
	for _, name := range prev {
		for i < len(next) && next[i] < name {
			i++
		}
		if i == len(next) || next[i] != name {
			missing = append(missing, name)
		}
	}
	return missing
}
