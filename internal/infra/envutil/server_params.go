// Package envutil extracts runtime overrides from the process environment.
package envutil

import "strings"

// ServerParamPrefix marks environment variables that override serverParams
// entries from config.yaml, e.g. FLOWMCP_COINGECKO_API_KEY.
const ServerParamPrefix = "FLOWMCP_"

// ServerParamOverrides collects FLOWMCP_<NAME> entries from environ in the
// form returned by os.Environ. When a name repeats, the last entry wins,
// matching how the OS resolves duplicates.
func ServerParamOverrides(environ []string) map[string]string {
	out := make(map[string]string)
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, ServerParamPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, ServerParamPrefix)
		if name == "" {
			continue
		}
		out[name] = value
	}
	return out
}

// MergeServerParams layers overrides on top of base without mutating either
// map.
func MergeServerParams(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for name, value := range base {
		merged[name] = value
	}
	for name, value := range overrides {
		merged[name] = value
	}
	return merged
}
