package discovery

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

func entry(namespace, route string, tags []string, schemaName, description string) domain.CatalogEntry {
	return domain.CatalogEntry{
		ToolRef:     namespace + "." + route,
		ToolName:    domain.DeriveToolName(route, namespace),
		SchemaRef:   "flowmcp/schemas/" + namespace + ".json",
		RouteName:   route,
		Namespace:   namespace,
		Tags:        tags,
		SchemaName:  schemaName,
		Description: description,
	}
}

func TestSearch_ScoreWeights(t *testing.T) {
	catalog := []domain.CatalogEntry{
		entry("price", "getQuote", nil, "", ""),
		entry("coingecko", "getCurrentPrice", nil, "", ""),
		entry("dex", "getDepth", []string{"price"}, "", ""),
		entry("opensea", "listAssets", nil, "NFT Price Explorer", ""),
		entry("binance", "getTicker", nil, "", "Latest price for a trading pair"),
	}

	result := Search("price", catalog, nil)
	require.Len(t, result.Tools, 5)

	scores := map[string]int{}
	for _, ranked := range result.Tools {
		scores[ranked.Entry.Namespace] = ranked.Score
	}
	assert.Equal(t, 20, scores["price"])
	assert.Equal(t, 15, scores["coingecko"])
	assert.Equal(t, 12, scores["dex"])
	assert.Equal(t, 8, scores["opensea"])
	assert.Equal(t, 5, scores["binance"])

	// Descending by score.
	for i := 1; i < len(result.Tools); i++ {
		assert.GreaterOrEqual(t, result.Tools[i-1].Score, result.Tools[i].Score)
	}
}

func TestSearch_EveryTokenMustScore(t *testing.T) {
	catalog := []domain.CatalogEntry{
		entry("coingecko", "getCurrentPrice", []string{"crypto"}, "", ""),
	}

	// "price" matches a route segment, "weather" matches nothing.
	result := Search("price weather", catalog, nil)
	assert.Empty(t, result.Tools)
	assert.Zero(t, result.TotalMatches)
	assert.Contains(t, result.Hint, "no tools matched")
}

func TestSearch_MultiTokenAccumulates(t *testing.T) {
	catalog := []domain.CatalogEntry{
		entry("coingecko", "getCurrentPrice", []string{"crypto"}, "", ""),
	}

	result := Search("crypto price", catalog, nil)
	require.Len(t, result.Tools, 1)
	// crypto hits the tag (+12), price the route segment (+15).
	assert.Equal(t, 27, result.Tools[0].Score)
}

func TestSearch_FirstRuleWinsPerToken(t *testing.T) {
	// "dex" is both the namespace and a tag; only the namespace points count.
	catalog := []domain.CatalogEntry{
		entry("dex", "getDepth", []string{"dex"}, "", ""),
	}

	result := Search("dex", catalog, nil)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, 20, result.Tools[0].Score)
}

func TestSearch_CapAtTenWithHint(t *testing.T) {
	var catalog []domain.CatalogEntry
	for i := 0; i < 15; i++ {
		catalog = append(catalog,
			entry(fmt.Sprintf("ns%02d", i), "getCurrentPrice", nil, "", ""))
	}

	result := Search("price", catalog, nil)

	assert.Len(t, result.Tools, 10)
	assert.Equal(t, 15, result.TotalMatches)
	assert.Contains(t, result.Hint, "15")

	// Equal scores keep catalog order, so the first ten namespaces win.
	for i, ranked := range result.Tools {
		assert.Equal(t, fmt.Sprintf("ns%02d", i), ranked.Entry.Namespace)
	}
}

func TestSearch_AliasIndexSurfacesSchema(t *testing.T) {
	// The schema's own metadata never mentions Germany; only the shared
	// country list it depends on does.
	holidays := entry("openholidays", "getPublicHolidays", []string{"calendar"}, "OpenHolidays", "Public holidays by country")
	catalog := []domain.CatalogEntry{
		entry("coingecko", "getCurrentPrice", nil, "", ""),
		holidays,
	}
	aliases := domain.SharedAliasIndex{
		"flowmcp/_shared/countryList.json": {
			SearchTerms: []string{"germany", "de", "france", "fr"},
			SchemaRefs:  []string{holidays.SchemaRef},
		},
	}

	result := Search("Germany", catalog, aliases)

	require.Len(t, result.Tools, 1)
	assert.Equal(t, "openholidays", result.Tools[0].Entry.Namespace)
	assert.Equal(t, 10, result.Tools[0].Score)
}

func TestSearch_AliasBypassesEveryTokenRule(t *testing.T) {
	holidays := entry("openholidays", "getPublicHolidays", nil, "", "")
	catalog := []domain.CatalogEntry{holidays}
	aliases := domain.SharedAliasIndex{
		"flowmcp/_shared/countryList.json": {
			SearchTerms: []string{"germany"},
			SchemaRefs:  []string{holidays.SchemaRef},
		},
	}

	// "holidays" scores via route segment, "germany" only via the alias
	// path; the entry still qualifies and both contribute.
	result := Search("germany holidays", catalog, aliases)

	require.Len(t, result.Tools, 1)
	assert.Equal(t, 15+10, result.Tools[0].Score)
}

func TestSearch_AliasDoesNotLeakToOtherSchemas(t *testing.T) {
	holidays := entry("openholidays", "getPublicHolidays", nil, "", "")
	prices := entry("coingecko", "getCurrentPrice", nil, "", "")
	aliases := domain.SharedAliasIndex{
		"flowmcp/_shared/countryList.json": {
			SearchTerms: []string{"germany"},
			SchemaRefs:  []string{holidays.SchemaRef},
		},
	}

	result := Search("germany", []domain.CatalogEntry{prices, holidays}, aliases)

	require.Len(t, result.Tools, 1)
	assert.Equal(t, "openholidays", result.Tools[0].Entry.Namespace)
}

func TestSearch_EmptyQuery(t *testing.T) {
	result := Search("   ", []domain.CatalogEntry{entry("ns", "route", nil, "", "")}, nil)
	assert.Empty(t, result.Tools)
	assert.NotEmpty(t, result.Hint)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	catalog := []domain.CatalogEntry{
		entry("coingecko", "getCurrentPrice", nil, "", ""),
	}

	result := Search("PRICE", catalog, nil)
	require.Len(t, result.Tools, 1)
}
