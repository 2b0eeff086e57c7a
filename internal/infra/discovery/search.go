package discovery

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// Match weights, applied first match wins per query token.
const (
	scoreNamespaceExact  = 20
	scoreRouteSegment    = 15
	scoreTagExact        = 12
	scoreSchemaNameWord  = 8
	scoreDescriptionWord = 5
	scoreAliasBonus      = 10
)

// Search ranks catalog entries against a whitespace-tokenized query. An
// entry qualifies when every token scores through its own metadata, or
// when its schema is linked to a shared list term matching any token; the
// alias path adds a flat bonus and waives the every-token rule, so terms
// that only exist in a shared enumeration still surface the schema.
// Ties keep catalog order; output is capped at MaxSearchResults.
func Search(query string, catalog []domain.CatalogEntry, aliases domain.SharedAliasIndex) domain.SearchResult {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return domain.SearchResult{
			Tools: []domain.RankedTool{},
			Hint:  "empty query; pass one or more keywords, e.g. `flowmcp search price`",
		}
	}

	aliasRefs := aliasRefsByToken(tokens, aliases)

	var ranked []domain.RankedTool
	for _, entry := range catalog {
		matcher := newEntryMatcher(entry)

		score := 0
		everyToken := true
		for _, token := range tokens {
			points := matcher.points(token)
			if points == 0 {
				everyToken = false
			}
			score += points
		}

		aliasHit := false
		for _, refs := range aliasRefs {
			if _, ok := refs[entry.SchemaRef]; ok {
				aliasHit = true
				break
			}
		}
		if aliasHit {
			score += scoreAliasBonus
		}
		if !everyToken && !aliasHit {
			continue
		}
		ranked = append(ranked, domain.RankedTool{Entry: entry, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	result := domain.SearchResult{Tools: ranked, TotalMatches: len(ranked)}
	if len(ranked) > domain.MaxSearchResults {
		result.Tools = ranked[:domain.MaxSearchResults]
		result.Hint = fmt.Sprintf("showing top %d of %d matches; add more keywords to narrow the search",
			domain.MaxSearchResults, len(ranked))
	} else if len(ranked) == 0 {
		result.Tools = []domain.RankedTool{}
		result.Hint = fmt.Sprintf("no tools matched %q; run `flowmcp tools` to browse the catalog", query)
	}
	return result
}

// aliasRefsByToken resolves which schema refs each query token reaches
// through the shared alias index.
func aliasRefsByToken(tokens []string, aliases domain.SharedAliasIndex) map[string]map[string]struct{} {
	out := map[string]map[string]struct{}{}
	for _, set := range aliases {
		for _, term := range set.SearchTerms {
			for _, token := range tokens {
				if term != token {
					continue
				}
				refs, ok := out[token]
				if !ok {
					refs = map[string]struct{}{}
					out[token] = refs
				}
				for _, ref := range set.SchemaRefs {
					refs[ref] = struct{}{}
				}
			}
		}
	}
	return out
}

type entryMatcher struct {
	namespace     string
	routeSegments map[string]struct{}
	tags          map[string]struct{}
	nameWords     map[string]struct{}
	descWords     map[string]struct{}
}

func newEntryMatcher(entry domain.CatalogEntry) entryMatcher {
	tags := make(map[string]struct{}, len(entry.Tags))
	for _, tag := range entry.Tags {
		tags[strings.ToLower(tag)] = struct{}{}
	}
	segments := map[string]struct{}{}
	for _, segment := range domain.SnakeSegments(entry.RouteName) {
		segments[segment] = struct{}{}
	}
	return entryMatcher{
		namespace:     strings.ToLower(entry.Namespace),
		routeSegments: segments,
		tags:          tags,
		nameWords:     wordSet(entry.SchemaName),
		descWords:     wordSet(entry.Description),
	}
}

func (m entryMatcher) points(token string) int {
	if token == m.namespace {
		return scoreNamespaceExact
	}
	if _, ok := m.routeSegments[token]; ok {
		return scoreRouteSegment
	}
	if _, ok := m.tags[token]; ok {
		return scoreTagExact
	}
	if _, ok := m.nameWords[token]; ok {
		return scoreSchemaNameWord
	}
	if _, ok := m.descWords[token]; ok {
		return scoreDescriptionWord
	}
	return 0
}

// wordSet splits s on non-alphanumeric runes into a lowercase word set.
func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}
