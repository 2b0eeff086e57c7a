package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
)

// ParseManifest decodes remote manifest bytes and checks structural
// requirements. Malformed JSON is a PARSE_FAILED error; a decoded manifest
// missing required fields is SCHEMA_INVALID.
func ParseManifest(data []byte) (*domain.Manifest, error) {
	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, domain.E(domain.CodeParseFailed, "registry.ParseManifest",
			"manifest is not valid JSON", err).
			WithHint("verify the reference points at a registry manifest, not an HTML page")
	}
	if errs := manifest.Validate(); len(errs) > 0 {
		return nil, domain.E(domain.CodeSchemaInvalid, "registry.ParseManifest",
			strings.Join(errs, "; "), nil).
			WithHint("the manifest is structurally incomplete; report this to the registry maintainer")
	}
	return &manifest, nil
}

// SchemaSpecWarning returns a non-empty message when the manifest declares
// a schemaSpec this build may not fully understand. Never fatal.
func SchemaSpecWarning(schemaSpec string) string {
	spec := strings.TrimSpace(schemaSpec)
	if spec == "" {
		return ""
	}
	v := spec
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Sprintf("manifest schemaSpec %q is not valid semver", spec)
	}
	if semver.Major(v) != domain.SupportedSchemaSpecMajor {
		return fmt.Sprintf("manifest schemaSpec %s targets major %s, this build understands %s; some schemas may not load",
			spec, semver.Major(v), domain.SupportedSchemaSpecMajor)
	}
	return ""
}

// LoadLocalManifest reads the persisted manifest copy for a source.
// A missing file maps to domain.ErrManifestNotFound so callers can treat
// first-time imports distinctly from corrupted state.
func LoadLocalManifest(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrManifestNotFound)
		}
		return nil, domain.E(domain.CodeIOFailed, "registry.LoadLocalManifest",
			fmt.Sprintf("read %s", path), err)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, domain.E(domain.CodeParseFailed, "registry.LoadLocalManifest",
			fmt.Sprintf("decode %s", path), err).
			WithHint("the local manifest copy is corrupt; re-run import to rebuild it")
	}
	return &manifest, nil
}

// SaveLocalManifest persists the manifest copy. A whole-file overwrite is
// enough here: the manifest is derived state, rebuilt on every sync, unlike
// mirrored content which gets temp+rename.
func SaveLocalManifest(path string, manifest *domain.Manifest) error {
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return domain.E(domain.CodeInternal, "registry.SaveLocalManifest", "encode manifest", err)
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(path, payload, fsutil.DefaultFileMode); err != nil {
		return domain.E(domain.CodeIOFailed, "registry.SaveLocalManifest",
			fmt.Sprintf("write %s", path), err).
			WithHint("check free disk space and directory permissions under the store root")
	}
	return nil
}
