package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKey_NoParams(t *testing.T) {
	key, err := BuildKey("coingecko", "get_current_price", nil)
	require.NoError(t, err)
	assert.Equal(t, "coingecko/get_current_price.json", key)
}

func TestBuildKey_ParamsFanOut(t *testing.T) {
	key, err := BuildKey("coingecko", "get_current_price", map[string]any{
		"ids": "bitcoin", "vs_currencies": "usd",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^coingecko/get_current_price/[0-9a-f]{12}\.json$`, key)

	other, err := BuildKey("coingecko", "get_current_price", map[string]any{
		"ids": "ethereum", "vs_currencies": "usd",
	})
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestBuildKey_ParamOrderIrrelevant(t *testing.T) {
	a, err := BuildKey("ns", "route", map[string]any{"x": 1, "y": "two", "z": true})
	require.NoError(t, err)
	b, err := BuildKey("ns", "route", map[string]any{"z": true, "y": "two", "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteThenRead(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	payload := json.RawMessage(`{"bitcoin":{"usd":64250.12}}`)

	meta, err := c.Write("coingecko/get_current_price.json", payload, 300)
	require.NoError(t, err)
	assert.Equal(t, 300, meta.TTLSeconds)
	assert.Equal(t, int64(len(payload)), meta.Size)
	assert.Equal(t, meta.FetchedAt.Add(300*time.Second), meta.ExpiresAt)

	hit, ok := c.Read("coingecko/get_current_price.json")
	require.True(t, ok)
	assert.False(t, hit.Expired)
	assert.JSONEq(t, string(payload), string(hit.Data))
	assert.Equal(t, int64(len(payload)), hit.Meta.Size)
}

func TestRead_MissingIsMiss(t *testing.T) {
	c := New(nil, t.TempDir(), nil)

	hit, ok := c.Read("nope/never.json")
	assert.False(t, ok)
	assert.Nil(t, hit)
}

func TestRead_CorruptIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(nil, dir, nil)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ns"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ns", "route.json"), []byte("{truncated"), 0o644))

	hit, ok := c.Read("ns/route.json")
	assert.False(t, ok)
	assert.Nil(t, hit)
}

func TestRead_ExpiredEntryStillReturned(t *testing.T) {
	c := New(nil, t.TempDir(), nil)

	// Negative TTL puts the expiry in the past immediately.
	_, err := c.Write("ns/route.json", json.RawMessage(`{"stale":true}`), -1)
	require.NoError(t, err)

	hit, ok := c.Read("ns/route.json")
	require.True(t, ok)
	assert.True(t, hit.Expired)
	assert.JSONEq(t, `{"stale":true}`, string(hit.Data))
}

func TestWrite_ZeroTTLUsesDefault(t *testing.T) {
	c := New(nil, t.TempDir(), nil)

	meta, err := c.Write("ns/route.json", json.RawMessage(`1`), 0)
	require.NoError(t, err)
	assert.Equal(t, 300, meta.TTLSeconds)
}

func TestWrite_Overwrites(t *testing.T) {
	c := New(nil, t.TempDir(), nil)

	_, err := c.Write("ns/route.json", json.RawMessage(`{"v":1}`), 60)
	require.NoError(t, err)
	_, err = c.Write("ns/route.json", json.RawMessage(`{"v":2}`), 60)
	require.NoError(t, err)

	hit, ok := c.Read("ns/route.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(hit.Data))
}

func TestWrite_UnsafeKeyRejected(t *testing.T) {
	c := New(nil, t.TempDir(), nil)

	_, err := c.Write("../outside.json", json.RawMessage(`1`), 60)
	require.Error(t, err)
}

func TestClear_Namespace(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	_, err := c.Write("alpha/one.json", json.RawMessage(`1`), 60)
	require.NoError(t, err)
	_, err = c.Write("alpha/two/abcdef123456.json", json.RawMessage(`2`), 60)
	require.NoError(t, err)
	_, err = c.Write("beta/one.json", json.RawMessage(`3`), 60)
	require.NoError(t, err)

	require.NoError(t, c.Clear("alpha"))

	_, ok := c.Read("alpha/one.json")
	assert.False(t, ok)
	_, ok = c.Read("alpha/two/abcdef123456.json")
	assert.False(t, ok)
	_, ok = c.Read("beta/one.json")
	assert.True(t, ok)
}

func TestClear_RouteRemovesBothForms(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	_, err := c.Write("ns/route.json", json.RawMessage(`1`), 60)
	require.NoError(t, err)
	_, err = c.Write("ns/route/abcdef123456.json", json.RawMessage(`2`), 60)
	require.NoError(t, err)

	require.NoError(t, c.Clear("ns/route"))

	_, ok := c.Read("ns/route.json")
	assert.False(t, ok)
	_, ok = c.Read("ns/route/abcdef123456.json")
	assert.False(t, ok)
}

func TestClear_AbsentScopeSucceeds(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	assert.NoError(t, c.Clear("never-written"))
	assert.NoError(t, c.Clear(""))
}

func TestClear_UnsafeScopeRejected(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	assert.Error(t, c.Clear("../sibling"))
}

func TestClear_All(t *testing.T) {
	c := New(nil, t.TempDir(), nil)
	_, err := c.Write("alpha/one.json", json.RawMessage(`1`), 60)
	require.NoError(t, err)

	require.NoError(t, c.Clear(""))

	_, ok := c.Read("alpha/one.json")
	assert.False(t, ok)

	// The cache is usable again after a full clear.
	_, err = c.Write("alpha/one.json", json.RawMessage(`1`), 60)
	assert.NoError(t, err)
}

func TestStatus_SummarizesEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(nil, dir, nil)
	_, err := c.Write("alpha/one.json", json.RawMessage(`{"a":1}`), 3600)
	require.NoError(t, err)
	_, err = c.Write("beta/two/abcdef123456.json", json.RawMessage(`{"b":2}`), -1)
	require.NoError(t, err)

	// A stray unparsable file must not break the walk.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha", "junk.json"), []byte("not json"), 0o644))

	status, err := c.Status()
	require.NoError(t, err)
	require.Len(t, status.Entries, 2)

	byKey := map[string]bool{}
	var total int64
	for _, entry := range status.Entries {
		byKey[entry.Key] = entry.Expired
		total += entry.Size
	}
	assert.Equal(t, status.TotalSize, total)
	require.Contains(t, byKey, "alpha/one.json")
	require.Contains(t, byKey, "beta/two/abcdef123456.json")
	assert.False(t, byKey["alpha/one.json"])
	assert.True(t, byKey["beta/two/abcdef123456.json"])

	for _, entry := range status.Entries {
		if entry.Key == "beta/two/abcdef123456.json" {
			assert.Equal(t, "beta", entry.Namespace)
		}
	}
}

func TestStatus_EmptyCache(t *testing.T) {
	c := New(nil, filepath.Join(t.TempDir(), "never-created"), nil)

	status, err := c.Status()
	require.NoError(t, err)
	assert.Empty(t, status.Entries)
	assert.Zero(t, status.TotalSize)
}
