package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

func TestContentDigest_Stable(t *testing.T) {
	first := ContentDigest([]byte("export const schema = {}"))
	second := ContentDigest([]byte("export const schema = {}"))

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestContentDigest_OneByteChange(t *testing.T) {
	a := ContentDigest([]byte("schema v1"))
	b := ContentDigest([]byte("schema v2"))
	assert.NotEqual(t, a, b)
}

func TestParamsFingerprint_OrderIndependent(t *testing.T) {
	first, err := ParamsFingerprint(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	second, err := ParamsFingerprint(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 12)
}

func TestParamsFingerprint_ValueSensitive(t *testing.T) {
	first, err := ParamsFingerprint(map[string]any{"coin": "bitcoin"})
	require.NoError(t, err)
	second, err := ParamsFingerprint(map[string]any{"coin": "ethereum"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCatalogETag_ChangesWithEntries(t *testing.T) {
	logger := zap.NewNop()
	one := CatalogETag(logger, []domain.CatalogEntry{{ToolName: "ping_ohlcv"}})
	two := CatalogETag(logger, []domain.CatalogEntry{{ToolName: "ping_ohlcv"}, {ToolName: "quote_dex"}})

	assert.NotEmpty(t, one)
	assert.NotEqual(t, one, two)
}
