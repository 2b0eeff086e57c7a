package domain

import "encoding/json"

// ParamKind says where a request parameter is placed.
type ParamKind string

const (
	ParamKindQuery  ParamKind = "query"
	ParamKindPath   ParamKind = "path"
	ParamKindBody   ParamKind = "body"
	ParamKindHeader ParamKind = "header"
)

// ParamType is the declared primitive of a route parameter. The core never
// branches on these beyond display and request-time validation.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeEnum    ParamType = "enum"
)

// ParamSpec is one declarative route parameter.
type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     string    `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
}

// RouteSpec describes one invocable route of a schema.
type RouteSpec struct {
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	Description string      `json:"description,omitempty"`
	Params      []ParamSpec `json:"params,omitempty"`
}

// SchemaDoc is a loaded schema document. File bytes stay opaque for hashing;
// only the keys below are interpreted.
type SchemaDoc struct {
	Namespace            string               `json:"namespace"`
	Name                 string               `json:"name,omitempty"`
	Description          string               `json:"description,omitempty"`
	Tags                 []string             `json:"tags,omitempty"`
	Root                 string               `json:"root"`
	Headers              map[string]string    `json:"headers,omitempty"`
	RequiredServerParams []string             `json:"requiredServerParams,omitempty"`
	Routes               map[string]RouteSpec `json:"routes"`
}

// InvokeResult is the outcome of executing one route.
type InvokeResult struct {
	OK       bool            `json:"ok"`
	Status   int             `json:"status,omitempty"`
	Messages []string        `json:"messages,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}
