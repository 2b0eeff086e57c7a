package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed presets.toml
var builtinPresets []byte

var ErrPresetNotFound = errors.New("preset not found")

// Preset names a well-known registry so `import flowmcp` works without a URL.
type Preset struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	URL         string `toml:"url"`
}

type presetsDoc struct {
	Registries []Preset `toml:"registries"`
}

// LoadPresets returns the builtin presets merged with the optional user
// presets file at userPath. User entries override same-named builtins;
// a missing user file is not an error.
func LoadPresets(userPath string) ([]Preset, error) {
	var builtin presetsDoc
	if err := toml.Unmarshal(builtinPresets, &builtin); err != nil {
		return nil, fmt.Errorf("decode builtin presets: %w", err)
	}

	merged := builtin.Registries
	if userPath != "" {
		data, err := os.ReadFile(userPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read user presets: %w", err)
		default:
			var user presetsDoc
			if err := toml.Unmarshal(data, &user); err != nil {
				return nil, fmt.Errorf("decode user presets %s: %w", userPath, err)
			}
			merged = mergePresets(merged, user.Registries)
		}
	}
	return merged, nil
}

// LookupPreset finds a preset by name.
func LookupPreset(presets []Preset, name string) (Preset, error) {
	for _, preset := range presets {
		if preset.Name == name {
			return preset, nil
		}
	}
	return Preset{}, fmt.Errorf("%q: %w", name, ErrPresetNotFound)
}

func mergePresets(base, overrides []Preset) []Preset {
	out := make([]Preset, len(base))
	copy(out, base)
	for _, override := range overrides {
		replaced := false
		for i := range out {
			if out[i].Name == override.Name {
				out[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, override)
		}
	}
	return out
}
