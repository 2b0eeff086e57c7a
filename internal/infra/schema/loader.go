// Package schema loads declarative schema documents from the mirror and
// executes their routes over HTTP. The sync layer treats schema files as
// opaque bytes; this package is the only place their content is
// interpreted.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

var knownMethods = map[string]struct{}{
	"GET": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "HEAD": {},
}

// Load reads and parses one schema document. Unknown keys are ignored so
// newer documents keep loading on older builds.
func Load(path string) (*domain.SchemaDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.E(domain.CodeNotFound, "schema.Load",
				fmt.Sprintf("schema file %s", path), err).
				WithHint("run `flowmcp update` to re-mirror the source")
		}
		return nil, domain.E(domain.CodeIOFailed, "schema.Load", fmt.Sprintf("read %s", path), err)
	}

	var doc domain.SchemaDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, domain.E(domain.CodeParseFailed, "schema.Load",
			fmt.Sprintf("parse %s", path), err).
			WithHint("the mirrored schema file is not valid JSON; re-run import or update")
	}
	return &doc, nil
}

// Validate checks a loaded document and returns every problem found, not
// just the first one. An empty slice means the document is usable.
func Validate(doc *domain.SchemaDoc) []string {
	var errs []string
	if doc.Namespace == "" {
		errs = append(errs, "namespace is required")
	}
	if doc.Root == "" {
		errs = append(errs, "root URL is required")
	} else if !strings.HasPrefix(doc.Root, "http://") && !strings.HasPrefix(doc.Root, "https://") {
		errs = append(errs, fmt.Sprintf("root %q must be an http(s) URL", doc.Root))
	}
	if len(doc.Routes) == 0 {
		errs = append(errs, "at least one route is required")
	}

	for name, route := range doc.Routes {
		if name == "" {
			errs = append(errs, "route with empty name")
			continue
		}
		if _, ok := knownMethods[strings.ToUpper(route.Method)]; !ok {
			errs = append(errs, fmt.Sprintf("route %s: unknown method %q", name, route.Method))
		}
		if route.Path == "" || !strings.HasPrefix(route.Path, "/") {
			errs = append(errs, fmt.Sprintf("route %s: path must start with /", name))
		}
		seen := map[string]struct{}{}
		for _, param := range route.Params {
			if param.Name == "" {
				errs = append(errs, fmt.Sprintf("route %s: param with empty name", name))
				continue
			}
			if _, dup := seen[param.Name]; dup {
				errs = append(errs, fmt.Sprintf("route %s: duplicate param %q", name, param.Name))
			}
			seen[param.Name] = struct{}{}
			switch param.Kind {
			case domain.ParamKindQuery, domain.ParamKindPath, domain.ParamKindBody, domain.ParamKindHeader:
			default:
				errs = append(errs, fmt.Sprintf("route %s: param %s has unknown kind %q", name, param.Name, param.Kind))
			}
			switch param.Type {
			case domain.ParamTypeString, domain.ParamTypeNumber, domain.ParamTypeBoolean:
			case domain.ParamTypeEnum:
				if len(param.Enum) == 0 {
					errs = append(errs, fmt.Sprintf("route %s: enum param %s has no values", name, param.Name))
				}
			default:
				errs = append(errs, fmt.Sprintf("route %s: param %s has unknown type %q", name, param.Name, param.Type))
			}
			if param.Kind == domain.ParamKindPath && !strings.Contains(route.Path, "{"+param.Name+"}") {
				errs = append(errs, fmt.Sprintf("route %s: path param %s has no {%s} segment", name, param.Name, param.Name))
			}
		}
	}
	return errs
}
