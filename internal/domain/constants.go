package domain

const (
	DefaultFetchTimeoutSeconds        = 10
	DefaultInvokeTimeoutSeconds       = 30
	DefaultCacheTTLSeconds            = 300
	DefaultObservabilityListenAddress = "0.0.0.0:9090"

	// MaxSearchResults caps the ranked tool list returned by a single search.
	MaxSearchResults = 10

	// MaxToolNameLength is the MCP-facing tool name limit.
	MaxToolNameLength = 63

	// RegistryFileName is the local manifest copy persisted per source.
	RegistryFileName = "_registry.json"

	// SupportedSchemaSpecMajor is the manifest schemaSpec major version this
	// build understands. Newer majors produce a warning, not a failure.
	SupportedSchemaSpecMajor = "v1"
)
