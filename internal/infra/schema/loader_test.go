package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

const sampleDoc = `{
  "namespace": "coingecko",
  "name": "CoinGecko",
  "description": "Crypto market data",
  "tags": ["crypto", "prices"],
  "root": "https://api.coingecko.com/api/v3",
  "requiredServerParams": [],
  "routes": {
    "get_current_price": {
      "method": "GET",
      "path": "/simple/price",
      "description": "Spot price for one or more coins",
      "params": [
        {"name": "ids", "kind": "query", "type": "string", "required": true},
        {"name": "vs_currencies", "kind": "query", "type": "string", "default": "usd"}
      ]
    }
  }
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	doc, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "coingecko", doc.Namespace)
	assert.Equal(t, []string{"crypto", "prices"}, doc.Tags)
	require.Contains(t, doc.Routes, "get_current_price")
	route := doc.Routes["get_current_price"]
	assert.Equal(t, "GET", route.Method)
	require.Len(t, route.Params, 2)
	assert.Equal(t, "usd", route.Params[1].Default)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNotFound, code)
}

func TestLoad_BadJSON(t *testing.T) {
	_, err := Load(writeDoc(t, "export default {}"))
	require.Error(t, err)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeParseFailed, code)
	assert.NotEmpty(t, domain.HintFrom(err))
}

func TestValidate_OK(t *testing.T) {
	doc, err := Load(writeDoc(t, sampleDoc))
	require.NoError(t, err)
	assert.Empty(t, Validate(doc))
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	doc := &domain.SchemaDoc{
		Root: "ftp://nope",
		Routes: map[string]domain.RouteSpec{
			"broken": {
				Method: "FETCH",
				Path:   "no-slash",
				Params: []domain.ParamSpec{
					{Name: "id", Kind: "somewhere", Type: "string"},
					{Name: "id", Kind: "query", Type: "string"},
					{Name: "mode", Kind: "query", Type: "enum"},
					{Name: "region", Kind: "path", Type: "string"},
				},
			},
		},
	}

	errs := Validate(doc)
	assert.Contains(t, errs, "namespace is required")
	assert.Contains(t, errs, `root "ftp://nope" must be an http(s) URL`)
	assert.Contains(t, errs, `route broken: unknown method "FETCH"`)
	assert.Contains(t, errs, "route broken: path must start with /")
	assert.Contains(t, errs, `route broken: param id has unknown kind "somewhere"`)
	assert.Contains(t, errs, `route broken: duplicate param "id"`)
	assert.Contains(t, errs, "route broken: enum param mode has no values")
	assert.Contains(t, errs, "route broken: path param region has no {region} segment")
}

func TestValidate_EmptyRoutes(t *testing.T) {
	doc := &domain.SchemaDoc{Namespace: "x", Root: "https://x.test"}
	assert.Contains(t, Validate(doc), "at least one route is required")
}
