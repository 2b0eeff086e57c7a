package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SourceType classifies where a source's manifest originates.
type SourceType string

const (
	// SourceTypeBuiltin: a preset registry shipped with the binary.
	SourceTypeBuiltin SourceType = "builtin"

	// SourceTypeGitHub: a manifest served from a GitHub raw URL.
	SourceTypeGitHub SourceType = "github"

	// SourceTypeRegistry: any other HTTP(S) manifest endpoint.
	SourceTypeRegistry SourceType = "registry"

	// SourceTypeLocal: a manifest read from the local filesystem.
	SourceTypeLocal SourceType = "local"
)

// Source is a named, independently synchronized origin of schema files.
// Created on first import, mutated on update, never auto-deleted.
type Source struct {
	Name        string     `json:"name"`
	Type        SourceType `json:"type"`
	OriginURL   string     `json:"originUrl"`
	SchemaCount int        `json:"schemaCount"`
	ImportedAt  time.Time  `json:"importedAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var sourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

var ErrSourceNotFound = errors.New("source not found")
var ErrSourceExists = errors.New("source already exists")
var ErrInvalidSourceName = errors.New("invalid source name")
var ErrManifestNotFound = errors.New("manifest not found")
var ErrToolNotFound = errors.New("tool not found")
var ErrRouteNotFound = errors.New("route not found")

// ValidSourceName reports whether name is usable as a source directory name.
func ValidSourceName(name string) bool {
	return name != "" && len(name) <= 64 && sourceNamePattern.MatchString(name)
}

// SharedEntry references one shared-list file in a manifest.
type SharedEntry struct {
	File string `json:"file"`
}

// SchemaEntry describes one schema file listed by a manifest.
type SchemaEntry struct {
	Namespace            string   `json:"namespace"`
	File                 string   `json:"file"`
	Name                 string   `json:"name,omitempty"`
	RequiredServerParams []string `json:"requiredServerParams,omitempty"`
	RequiredModules      []string `json:"requiredModules,omitempty"`
}

// Manifest enumerates a source's schema files and metadata. The local copy
// persisted as _registry.json carries LocalHashes, the authoritative record
// of what the mirror last saw on disk.
type Manifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	SchemaSpec  string            `json:"schemaSpec,omitempty"`
	BaseDir     string            `json:"baseDir,omitempty"`
	Shared      []SharedEntry     `json:"shared,omitempty"`
	Schemas     []SchemaEntry     `json:"schemas"`
	LocalHashes map[string]string `json:"localHashes,omitempty"`
}

// Files returns every file the manifest references, shared lists first,
// then schema files in manifest order. Schemas may depend on shared lists
// for parameter derivation, so shared files must land before schemas.
func (m *Manifest) Files() []string {
	out := make([]string, 0, len(m.Shared)+len(m.Schemas))
	for _, s := range m.Shared {
		out = append(out, s.File)
	}
	for _, s := range m.Schemas {
		out = append(out, s.File)
	}
	return out
}

// Validate checks the structural requirements of a remote manifest and
// returns every problem found rather than stopping at the first.
func (m *Manifest) Validate() []string {
	var errs []string
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "manifest name is required")
	}
	if len(m.Schemas) == 0 {
		errs = append(errs, "manifest schemas list is empty")
	}
	seen := make(map[string]struct{}, len(m.Schemas))
	for i, entry := range m.Schemas {
		if strings.TrimSpace(entry.Namespace) == "" {
			errs = append(errs, fmt.Sprintf("schemas[%d]: namespace is required", i))
		}
		if strings.TrimSpace(entry.File) == "" {
			errs = append(errs, fmt.Sprintf("schemas[%d]: file is required", i))
			continue
		}
		if _, dup := seen[entry.File]; dup {
			errs = append(errs, fmt.Sprintf("schemas[%d]: duplicate file %q", i, entry.File))
		}
		seen[entry.File] = struct{}{}
	}
	for i, entry := range m.Shared {
		if strings.TrimSpace(entry.File) == "" {
			errs = append(errs, fmt.Sprintf("shared[%d]: file is required", i))
		}
	}
	return errs
}
