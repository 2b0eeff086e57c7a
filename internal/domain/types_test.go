package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestFiles_SharedFirst(t *testing.T) {
	m := &Manifest{
		Name:   "test",
		Shared: []SharedEntry{{File: "_shared/countries.json"}},
		Schemas: []SchemaEntry{
			{Namespace: "alpha", File: "alpha.json"},
			{Namespace: "beta", File: "beta.json"},
		},
	}
	require.Equal(t, []string{"_shared/countries.json", "alpha.json", "beta.json"}, m.Files())
}

func TestManifestValidate(t *testing.T) {
	m := &Manifest{
		Schemas: []SchemaEntry{
			{Namespace: "", File: "a.json"},
			{Namespace: "dup", File: "a.json"},
			{Namespace: "nofile", File: ""},
		},
		Shared: []SharedEntry{{File: ""}},
	}
	errs := m.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs, "manifest name is required")
	assert.Contains(t, errs, "schemas[0]: namespace is required")
	assert.Contains(t, errs, `schemas[1]: duplicate file "a.json"`)
	assert.Contains(t, errs, "schemas[2]: file is required")
	assert.Contains(t, errs, "shared[0]: file is required")
}

func TestManifestValidate_OK(t *testing.T) {
	m := &Manifest{
		Name:    "flowmcp",
		Schemas: []SchemaEntry{{Namespace: "coingecko", File: "coingecko.json"}},
	}
	assert.Empty(t, m.Validate())
}

func TestValidSourceName(t *testing.T) {
	assert.True(t, ValidSourceName("flowmcp"))
	assert.True(t, ValidSourceName("my-registry.v2"))
	assert.False(t, ValidSourceName(""))
	assert.False(t, ValidSourceName("Nope"))
	assert.False(t, ValidSourceName("../escape"))
	assert.False(t, ValidSourceName("-lead"))
}
