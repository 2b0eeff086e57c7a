// Package discovery builds the tool catalog from mirrored manifests and
// answers ranked search queries over it. The catalog is ephemeral: rebuilt
// from disk on demand, never persisted.
package discovery

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/schema"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
)

type Builder struct {
	logger *zap.Logger
	store  *store.Store
}

func NewBuilder(logger *zap.Logger, st *store.Store) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.Named("discovery"), store: st}
}

// BuildCatalog walks every source's local manifest and derives one entry
// per route. Sources are processed in the given order and routes in sorted
// order inside each schema, so two builds over the same mirror yield the
// same catalog. Duplicate tool names keep the first entry; later ones are
// logged and dropped.
func (b *Builder) BuildCatalog(sources []domain.Source) []domain.CatalogEntry {
	var entries []domain.CatalogEntry
	claimed := map[string]string{}

	for _, source := range sources {
		manifest, ok := b.loadManifest(source.Name)
		if !ok {
			continue
		}
		for _, schemaEntry := range manifest.Schemas {
			doc, ok := b.loadSchema(source.Name, schemaEntry.File)
			if !ok {
				continue
			}
			schemaRef := path.Join(source.Name, schemaEntry.File)

			routeNames := make([]string, 0, len(doc.Routes))
			for name := range doc.Routes {
				routeNames = append(routeNames, name)
			}
			sort.Strings(routeNames)

			for _, routeName := range routeNames {
				route := doc.Routes[routeName]
				toolName := domain.DeriveToolName(routeName, doc.Namespace)
				if prior, taken := claimed[toolName]; taken {
					// First wins across sources; the shadowed route stays
					// invocable through its schema ref but gets no tool.
					b.logger.Warn("tool name collision",
						zap.String("tool", toolName),
						zap.String("kept", prior),
						zap.String("dropped", schemaRef))
					continue
				}
				claimed[toolName] = schemaRef

				description := route.Description
				if description == "" {
					description = doc.Description
				}
				schemaName := doc.Name
				if schemaName == "" {
					schemaName = schemaEntry.Name
				}
				entries = append(entries, domain.CatalogEntry{
					ToolRef:     doc.Namespace + "." + routeName,
					ToolName:    toolName,
					SchemaRef:   schemaRef,
					RouteName:   routeName,
					Namespace:   doc.Namespace,
					Description: description,
					Tags:        doc.Tags,
					SchemaName:  schemaName,
				})
			}
		}
	}
	return entries
}

// BuildAliasIndex loads every shared list referenced by the manifests and
// links its search terms to the schemas that declare a dependency on it.
// Shared files that fail to parse are skipped; the index is best effort.
func (b *Builder) BuildAliasIndex(sources []domain.Source) domain.SharedAliasIndex {
	index := domain.SharedAliasIndex{}

	for _, source := range sources {
		manifest, ok := b.loadManifest(source.Name)
		if !ok {
			continue
		}
		for _, shared := range manifest.Shared {
			sharedRef := path.Join(source.Name, shared.File)
			terms := b.loadSharedTerms(source.Name, shared.File)
			if len(terms) == 0 {
				continue
			}

			module := moduleKey(shared.File)
			var refs []string
			for _, schemaEntry := range manifest.Schemas {
				if dependsOn(schemaEntry.RequiredModules, module, shared.File) {
					refs = append(refs, path.Join(source.Name, schemaEntry.File))
				}
			}
			if len(refs) == 0 {
				continue
			}
			index[sharedRef] = domain.AliasSet{SearchTerms: terms, SchemaRefs: refs}
		}
	}
	return index
}

func (b *Builder) loadManifest(source string) (*domain.Manifest, bool) {
	manifestPath, err := b.store.ManifestPath(source)
	if err != nil {
		b.logger.Warn("skipping source", zap.String("source", source), zap.Error(err))
		return nil, false
	}
	manifest, err := registry.LoadLocalManifest(manifestPath)
	if err != nil {
		b.logger.Debug("no usable manifest", zap.String("source", source), zap.Error(err))
		return nil, false
	}
	return manifest, true
}

func (b *Builder) loadSchema(source, file string) (*domain.SchemaDoc, bool) {
	schemaPath, err := b.store.SchemaFilePath(source, file)
	if err != nil {
		b.logger.Warn("skipping schema", zap.String("file", file), zap.Error(err))
		return nil, false
	}
	doc, err := schema.Load(schemaPath)
	if err != nil {
		b.logger.Warn("skipping unreadable schema",
			zap.String("source", source), zap.String("file", file), zap.Error(err))
		return nil, false
	}
	if problems := schema.Validate(doc); len(problems) > 0 {
		b.logger.Warn("skipping invalid schema",
			zap.String("source", source),
			zap.String("file", file),
			zap.Strings("problems", problems))
		return nil, false
	}
	return doc, true
}

// loadSharedTerms extracts lowercase search terms from a shared list file.
// Records contribute their name plus any alias, code or alpha2 style field;
// plain string entries contribute themselves.
func (b *Builder) loadSharedTerms(source, file string) []string {
	sharedPath, err := b.store.SchemaFilePath(source, file)
	if err != nil {
		return nil
	}
	data, err := os.ReadFile(sharedPath)
	if err != nil {
		b.logger.Debug("shared list unreadable", zap.String("file", file), zap.Error(err))
		return nil
	}

	var records []any
	if err := json.Unmarshal(data, &records); err != nil {
		b.logger.Debug("shared list not a JSON array", zap.String("file", file), zap.Error(err))
		return nil
	}

	seen := map[string]struct{}{}
	var terms []string
	add := func(value any) {
		s, ok := value.(string)
		if !ok {
			return
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		terms = append(terms, s)
	}

	for _, record := range records {
		switch v := record.(type) {
		case string:
			add(v)
		case map[string]any:
			for _, key := range []string{"name", "alias", "code", "alpha2", "alpha-2"} {
				switch field := v[key].(type) {
				case string:
					add(field)
				case []any:
					for _, item := range field {
						add(item)
					}
				}
			}
		}
	}
	return terms
}

// moduleKey is the dependency name a schema uses to reference a shared
// file: the base name without its extension.
func moduleKey(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

func dependsOn(requiredModules []string, module, file string) bool {
	for _, required := range requiredModules {
		if required == module || required == file {
			return true
		}
	}
	return false
}
