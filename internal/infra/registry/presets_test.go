package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPresets_Builtin(t *testing.T) {
	presets, err := LoadPresets("")
	require.NoError(t, err)
	require.NotEmpty(t, presets)

	preset, err := LookupPreset(presets, "flowmcp")
	require.NoError(t, err)
	assert.NotEmpty(t, preset.URL)
}

func TestLoadPresets_UserOverride(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "presets.toml")
	user := `
[[registries]]
name = "flowmcp"
url = "https://mirror.internal/registry.json"

[[registries]]
name = "private"
url = "https://private.example.com/registry.json"
`
	require.NoError(t, os.WriteFile(userPath, []byte(user), 0o644))

	presets, err := LoadPresets(userPath)
	require.NoError(t, err)

	overridden, err := LookupPreset(presets, "flowmcp")
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.internal/registry.json", overridden.URL)

	private, err := LookupPreset(presets, "private")
	require.NoError(t, err)
	assert.Equal(t, "https://private.example.com/registry.json", private.URL)
}

func TestLoadPresets_MissingUserFileOK(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, presets)
}

func TestLookupPreset_NotFound(t *testing.T) {
	_, err := LookupPreset(nil, "ghost")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}
