package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
)

const coingeckoDoc = `{
  "namespace": "coingecko",
  "name": "CoinGecko",
  "description": "Crypto market data",
  "tags": ["crypto", "prices"],
  "root": "https://api.coingecko.com/api/v3",
  "routes": {
    "getCurrentPrice": {
      "method": "GET", "path": "/simple/price",
      "description": "Spot price lookup",
      "params": [{"name": "ids", "kind": "query", "type": "string", "required": true}]
    },
    "getCoinList": {"method": "GET", "path": "/coins/list"}
  }
}`

const holidaysDoc = `{
  "namespace": "openholidays",
  "name": "OpenHolidays",
  "description": "Public holidays by country",
  "root": "https://openholidaysapi.org",
  "routes": {
    "getPublicHolidays": {
      "method": "GET", "path": "/PublicHolidays",
      "params": [{"name": "countryIsoCode", "kind": "query", "type": "string", "required": true}]
    }
  }
}`

const countryList = `[
  {"name": "Germany", "alpha2": "DE"},
  {"name": "France", "alpha2": "FR"},
  "Micronation"
]`

func seedSource(t *testing.T, st *store.Store, name string, manifest *domain.Manifest, files map[string]string) {
	t.Helper()
	for file, content := range files {
		path, err := st.SchemaFilePath(name, file)
		require.NoError(t, err)
		require.NoError(t, fsutil.WriteFileAtomic(path, []byte(content), fsutil.DefaultFileMode))
	}
	manifestPath, err := st.ManifestPath(name)
	require.NoError(t, err)
	require.NoError(t, registry.SaveLocalManifest(manifestPath, manifest))
}

func testSources(names ...string) []domain.Source {
	sources := make([]domain.Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, domain.Source{Name: name, Type: domain.SourceTypeRegistry})
	}
	return sources
}

func TestBuildCatalog(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name: "flowmcp",
		Schemas: []domain.SchemaEntry{
			{Namespace: "coingecko", File: "coingecko.json"},
			{Namespace: "openholidays", File: "openholidays.json"},
		},
	}, map[string]string{
		"coingecko.json":    coingeckoDoc,
		"openholidays.json": holidaysDoc,
	})

	entries := NewBuilder(nil, st).BuildCatalog(testSources("flowmcp"))
	require.Len(t, entries, 3)

	// Schemas keep manifest order; routes are sorted inside each schema.
	assert.Equal(t, "get_coin_list_coingecko", entries[0].ToolName)
	assert.Equal(t, "get_current_price_coingecko", entries[1].ToolName)
	assert.Equal(t, "get_public_holidays_openholidays", entries[2].ToolName)

	price := entries[1]
	assert.Equal(t, "coingecko.getCurrentPrice", price.ToolRef)
	assert.Equal(t, "flowmcp/coingecko.json", price.SchemaRef)
	assert.Equal(t, "getCurrentPrice", price.RouteName)
	assert.Equal(t, []string{"crypto", "prices"}, price.Tags)
	assert.Equal(t, "CoinGecko", price.SchemaName)
	// Route description wins over the document description.
	assert.Equal(t, "Spot price lookup", price.Description)
	// Routes without their own description fall back to the document's.
	assert.Equal(t, "Crypto market data", entries[0].Description)
}

func TestBuildCatalog_FirstSourceWinsCollisions(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	for _, source := range []string{"alpha", "beta"} {
		seedSource(t, st, source, &domain.Manifest{
			Name:    source,
			Schemas: []domain.SchemaEntry{{Namespace: "coingecko", File: "coingecko.json"}},
		}, map[string]string{"coingecko.json": coingeckoDoc})
	}

	entries := NewBuilder(nil, st).BuildCatalog(testSources("alpha", "beta"))

	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "alpha/coingecko.json", entry.SchemaRef)
	}
}

func TestBuildCatalog_SkipsBrokenSchemas(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name: "flowmcp",
		Schemas: []domain.SchemaEntry{
			{Namespace: "broken", File: "broken.json"},
			{Namespace: "invalid", File: "invalid.json"},
			{Namespace: "missing", File: "missing.json"},
			{Namespace: "coingecko", File: "coingecko.json"},
		},
	}, map[string]string{
		"broken.json":    "export default {}",
		"invalid.json":   `{"namespace": "invalid"}`,
		"coingecko.json": coingeckoDoc,
	})

	entries := NewBuilder(nil, st).BuildCatalog(testSources("flowmcp"))

	require.Len(t, entries, 2)
	assert.Equal(t, "coingecko", entries[0].Namespace)
}

func TestBuildCatalog_SourceWithoutManifest(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)

	entries := NewBuilder(nil, st).BuildCatalog(testSources("ghost"))
	assert.Empty(t, entries)
}

func TestBuildAliasIndex(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name:   "flowmcp",
		Shared: []domain.SharedEntry{{File: "_shared/countryList.json"}},
		Schemas: []domain.SchemaEntry{
			{Namespace: "openholidays", File: "openholidays.json", RequiredModules: []string{"countryList"}},
			{Namespace: "coingecko", File: "coingecko.json"},
		},
	}, map[string]string{
		"_shared/countryList.json": countryList,
		"openholidays.json":        holidaysDoc,
		"coingecko.json":           coingeckoDoc,
	})

	index := NewBuilder(nil, st).BuildAliasIndex(testSources("flowmcp"))

	require.Contains(t, index, "flowmcp/_shared/countryList.json")
	set := index["flowmcp/_shared/countryList.json"]
	assert.ElementsMatch(t, []string{"germany", "de", "france", "fr", "micronation"}, set.SearchTerms)
	// Only the schema declaring the dependency is linked.
	assert.Equal(t, []string{"flowmcp/openholidays.json"}, set.SchemaRefs)
}

func TestBuildAliasIndex_SkipsUnusableLists(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name: "flowmcp",
		Shared: []domain.SharedEntry{
			{File: "_shared/broken.json"},
			{File: "_shared/orphan.json"},
		},
		Schemas: []domain.SchemaEntry{
			{Namespace: "openholidays", File: "openholidays.json", RequiredModules: []string{"broken"}},
		},
	}, map[string]string{
		"_shared/broken.json": "not json",
		"_shared/orphan.json": `[{"name": "Nobody Depends On Me"}]`,
		"openholidays.json":   holidaysDoc,
	})

	index := NewBuilder(nil, st).BuildAliasIndex(testSources("flowmcp"))
	assert.Empty(t, index)
}

func TestProvider_SnapshotAndRebuild(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	db, err := store.OpenSourceDB(st.SourcesDBPath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name:    "flowmcp",
		Schemas: []domain.SchemaEntry{{Namespace: "coingecko", File: "coingecko.json"}},
	}, map[string]string{"coingecko.json": coingeckoDoc})
	require.NoError(t, db.Put(domain.Source{Name: "flowmcp", Type: domain.SourceTypeRegistry}))

	provider, err := NewProvider(context.Background(), nil, NewBuilder(nil, st), db, st.MirrorRoot())
	require.NoError(t, err)

	first := provider.Snapshot()
	assert.Len(t, first.Entries, 2)
	assert.NotEmpty(t, first.ETag)

	// An unchanged mirror keeps the previous snapshot.
	require.NoError(t, provider.Rebuild(context.Background()))
	assert.Equal(t, first.BuiltAt, provider.Snapshot().BuiltAt)

	// Adding a schema swaps in a new snapshot.
	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name: "flowmcp",
		Schemas: []domain.SchemaEntry{
			{Namespace: "coingecko", File: "coingecko.json"},
			{Namespace: "openholidays", File: "openholidays.json"},
		},
	}, map[string]string{
		"coingecko.json":    coingeckoDoc,
		"openholidays.json": holidaysDoc,
	})
	require.NoError(t, provider.Rebuild(context.Background()))

	second := provider.Snapshot()
	assert.Len(t, second.Entries, 3)
	assert.NotEqual(t, first.ETag, second.ETag)
}

func TestProvider_WatcherRebuildsOnMirrorChange(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	db, err := store.OpenSourceDB(st.SourcesDBPath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name:    "flowmcp",
		Schemas: []domain.SchemaEntry{{Namespace: "coingecko", File: "coingecko.json"}},
	}, map[string]string{"coingecko.json": coingeckoDoc})
	require.NoError(t, db.Put(domain.Source{Name: "flowmcp", Type: domain.SourceTypeRegistry}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := NewProvider(ctx, nil, NewBuilder(nil, st), db, st.MirrorRoot())
	require.NoError(t, err)
	provider.Watch(ctx)

	// Give the watcher a moment to register its inotify watches before
	// mutating the mirror.
	time.Sleep(300 * time.Millisecond)

	seedSource(t, st, "flowmcp", &domain.Manifest{
		Name: "flowmcp",
		Schemas: []domain.SchemaEntry{
			{Namespace: "coingecko", File: "coingecko.json"},
			{Namespace: "openholidays", File: "openholidays.json"},
		},
	}, map[string]string{
		"coingecko.json":    coingeckoDoc,
		"openholidays.json": holidaysDoc,
	})

	require.Eventually(t, func() bool {
		return len(provider.Snapshot().Entries) == 3
	}, 5*time.Second, 100*time.Millisecond, "no catalog rebuild after mirror change")
}

func TestBuildCatalog_DeterministicAcrossRuns(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	var schemas []domain.SchemaEntry
	files := map[string]string{}
	for i := 0; i < 5; i++ {
		namespace := fmt.Sprintf("ns%d", i)
		file := namespace + ".json"
		schemas = append(schemas, domain.SchemaEntry{Namespace: namespace, File: file})
		files[file] = fmt.Sprintf(`{
  "namespace": %q,
  "root": "https://api.test",
  "routes": {
    "zulu": {"method": "GET", "path": "/z"},
    "alpha": {"method": "GET", "path": "/a"},
    "mike": {"method": "GET", "path": "/m"}
  }
}`, namespace)
	}
	seedSource(t, st, "flowmcp", &domain.Manifest{Name: "flowmcp", Schemas: schemas}, files)

	builder := NewBuilder(nil, st)
	sources := testSources("flowmcp")
	first := builder.BuildCatalog(sources)
	second := builder.BuildCatalog(sources)

	require.Equal(t, first, second)
	// Routes come out sorted within each schema.
	assert.Equal(t, "alpha_ns0", first[0].ToolName)
	assert.Equal(t, "mike_ns0", first[1].ToolName)
	assert.Equal(t, "zulu_ns0", first[2].ToolName)
}
