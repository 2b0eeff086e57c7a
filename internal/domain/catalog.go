package domain

// CatalogEntry represents one invocable route surfaced for discovery.
// ToolRef is the canonical "namespace.routeName" reference; ToolName is the
// derived MCP-facing name. SchemaRef is "source/file" and identifies the
// mirrored schema document the route came from.
type CatalogEntry struct {
	ToolRef     string   `json:"toolRef"`
	ToolName    string   `json:"toolName"`
	SchemaRef   string   `json:"schemaRef"`
	RouteName   string   `json:"routeName"`
	Namespace   string   `json:"namespace"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SchemaName  string   `json:"schemaName,omitempty"`
}

// AliasSet associates the lowercase search terms extracted from one shared
// list with every schema that declares a dependency on that list.
type AliasSet struct {
	SearchTerms []string `json:"searchTerms"`
	SchemaRefs  []string `json:"schemaRefs"`
}

// SharedAliasIndex maps a shared-list file reference to its alias set.
// Rebuilt alongside the catalog, never persisted.
type SharedAliasIndex map[string]AliasSet

// RankedTool pairs a catalog entry with its search score.
type RankedTool struct {
	Entry CatalogEntry `json:"entry"`
	Score int          `json:"score"`
}

// SearchResult is a capped, rank-ordered answer to one discovery query.
// Hint is set when the cap truncated the list or when nothing matched.
type SearchResult struct {
	Tools        []RankedTool `json:"tools"`
	TotalMatches int          `json:"totalMatches"`
	Hint         string       `json:"hint,omitempty"`
}
