// Package store models the on-disk store root that every operation works
// against: mirrored schema trees, the artifact cache, the source registry
// database and the CLI config file all live under one base path.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
)

const (
	schemasDirName  = "schemas"
	cacheDirName    = "cache"
	sourcesDBName   = "sources.db"
	configFileName  = "config.yaml"
	presetsFileName = "presets.toml"
)

// Store is a handle on the store root. It only derives paths; it never
// touches file contents itself.
type Store struct {
	root string
}

// Open resolves root (empty means DefaultRoot) and ensures the base
// directories exist.
func Open(root string) (*Store, error) {
	resolved := strings.TrimSpace(root)
	if resolved == "" {
		def, err := DefaultRoot()
		if err != nil {
			return nil, err
		}
		resolved = def
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if err := fsutil.EnsureDir(abs); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(filepath.Join(abs, schemasDirName)); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(filepath.Join(abs, cacheDirName)); err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

// DefaultRoot is ~/.flowmcp.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".flowmcp"), nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) ConfigPath() string { return filepath.Join(s.root, configFileName) }

func (s *Store) PresetsPath() string { return filepath.Join(s.root, presetsFileName) }

func (s *Store) SourcesDBPath() string { return filepath.Join(s.root, sourcesDBName) }

func (s *Store) MirrorRoot() string { return filepath.Join(s.root, schemasDirName) }

func (s *Store) CacheRoot() string { return filepath.Join(s.root, cacheDirName) }

// SourceDir is the mirror directory for one source.
func (s *Store) SourceDir(source string) (string, error) {
	if !domain.ValidSourceName(source) {
		return "", domain.E(domain.CodeInvalidArgument, "store.SourceDir",
			fmt.Sprintf("invalid source name %q", source), domain.ErrInvalidSourceName)
	}
	return filepath.Join(s.MirrorRoot(), source), nil
}

// ManifestPath is the local manifest copy for one source.
func (s *Store) ManifestPath(source string) (string, error) {
	dir, err := s.SourceDir(source)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, domain.RegistryFileName), nil
}

// SchemaFilePath resolves a manifest-relative file inside a source's mirror
// directory. Absolute paths and traversal outside the source dir are
// rejected.
func (s *Store) SchemaFilePath(source, file string) (string, error) {
	dir, err := s.SourceDir(source)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(filepath.FromSlash(file))
	if cleaned == "." || !filepath.IsLocal(cleaned) {
		return "", domain.E(domain.CodeInvalidArgument, "store.SchemaFilePath",
			fmt.Sprintf("unsafe file path %q", file), nil)
	}
	return filepath.Join(dir, cleaned), nil
}
