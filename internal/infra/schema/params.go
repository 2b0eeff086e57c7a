package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// ParamSet is a route's compiled parameter specs. Compile once, resolve per
// invocation.
type ParamSet struct {
	specs []domain.ParamSpec
}

// ResolvedParams is a validated invocation, split by where each value goes
// in the request.
type ResolvedParams struct {
	Query  url.Values
	Path   map[string]string
	Body   map[string]any
	Header map[string]string
}

func CompileParams(route domain.RouteSpec) *ParamSet {
	specs := make([]domain.ParamSpec, len(route.Params))
	copy(specs, route.Params)
	return &ParamSet{specs: specs}
}

// Specs returns the compiled specs in declaration order.
func (p *ParamSet) Specs() []domain.ParamSpec {
	out := make([]domain.ParamSpec, len(p.specs))
	copy(out, p.specs)
	return out
}

// Resolve validates user input against the specs and places each value.
// All problems are collected; a non-empty message list means the
// invocation must not proceed. Unknown keys are rejected so typos fail
// loudly instead of silently dropping a filter.
func (p *ParamSet) Resolve(user map[string]any) (*ResolvedParams, []string) {
	resolved := &ResolvedParams{
		Query:  url.Values{},
		Path:   map[string]string{},
		Body:   map[string]any{},
		Header: map[string]string{},
	}
	var messages []string

	known := make(map[string]struct{}, len(p.specs))
	for _, spec := range p.specs {
		known[spec.Name] = struct{}{}

		raw, present := user[spec.Name]
		if !present {
			if spec.Default != "" {
				p.place(resolved, spec, spec.Default)
				continue
			}
			if spec.Required {
				messages = append(messages, fmt.Sprintf("missing required param %q", spec.Name))
			}
			continue
		}

		value, err := coerce(spec, raw)
		if err != nil {
			messages = append(messages, err.Error())
			continue
		}
		p.place(resolved, spec, value)
	}

	for name := range user {
		if _, ok := known[name]; !ok {
			messages = append(messages, fmt.Sprintf("unknown param %q", name))
		}
	}
	return resolved, messages
}

func (p *ParamSet) place(resolved *ResolvedParams, spec domain.ParamSpec, value string) {
	switch spec.Kind {
	case domain.ParamKindQuery:
		resolved.Query.Set(spec.Name, value)
	case domain.ParamKindPath:
		resolved.Path[spec.Name] = value
	case domain.ParamKindHeader:
		resolved.Header[spec.Name] = value
	case domain.ParamKindBody:
		resolved.Body[spec.Name] = bodyValue(spec, value)
	}
}

// bodyValue keeps JSON bodies typed: numbers and booleans are sent as
// such, not as quoted strings.
func bodyValue(spec domain.ParamSpec, value string) any {
	switch spec.Type {
	case domain.ParamTypeNumber:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	case domain.ParamTypeBoolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}

// coerce renders raw to the canonical string form for spec, validating the
// declared type. CLI input arrives as strings, MCP input as decoded JSON
// values; both are accepted.
func coerce(spec domain.ParamSpec, raw any) (string, error) {
	var value string
	switch v := raw.(type) {
	case string:
		value = v
	case bool:
		value = strconv.FormatBool(v)
	case float64:
		value = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		value = strconv.Itoa(v)
	case int64:
		value = strconv.FormatInt(v, 10)
	default:
		return "", fmt.Errorf("param %q: unsupported value type %T", spec.Name, raw)
	}

	switch spec.Type {
	case domain.ParamTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "", fmt.Errorf("param %q: %q is not a number", spec.Name, value)
		}
	case domain.ParamTypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return "", fmt.Errorf("param %q: %q is not a boolean", spec.Name, value)
		}
	case domain.ParamTypeEnum:
		found := false
		for _, allowed := range spec.Enum {
			if value == allowed {
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("param %q: %q is not one of [%s]",
				spec.Name, value, strings.Join(spec.Enum, ", "))
		}
	}
	return value, nil
}

// JSONSchema renders the specs as a JSON Schema object suitable for an MCP
// tool's input schema.
func (p *ParamSet) JSONSchema() *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(p.specs))
	var required []string
	for _, spec := range p.specs {
		prop := &jsonschema.Schema{Description: describeParam(spec)}
		switch spec.Type {
		case domain.ParamTypeNumber:
			prop.Type = "number"
		case domain.ParamTypeBoolean:
			prop.Type = "boolean"
		case domain.ParamTypeEnum:
			prop.Type = "string"
			for _, value := range spec.Enum {
				prop.Enum = append(prop.Enum, value)
			}
		default:
			prop.Type = "string"
		}
		properties[spec.Name] = prop
		if spec.Required && spec.Default == "" {
			required = append(required, spec.Name)
		}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func describeParam(spec domain.ParamSpec) string {
	desc := spec.Description
	if spec.Default != "" {
		if desc != "" {
			desc += " "
		}
		desc += fmt.Sprintf("(default %s)", spec.Default)
	}
	return desc
}
