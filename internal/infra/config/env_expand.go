package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// expandConfigEnv replaces ${VAR} references in scalar values with their
// environment values and returns the re-encoded document plus the sorted
// names of any variables that were not set. Expansion works on the yaml
// node tree so keys and structure are never rewritten.
func expandConfigEnv(raw []byte) (string, []string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}
	// An empty document leaves the node zero-valued, which cannot be
	// re-encoded.
	if root.Kind == 0 {
		return string(raw), nil, nil
	}

	exp := envExpander{lookup: os.LookupEnv, missing: map[string]bool{}}
	exp.walk(&root)

	out, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return string(out), exp.unresolved(), nil
}

type envExpander struct {
	lookup  func(string) (string, bool)
	missing map[string]bool
}

// walk visits every value scalar reachable from root. Mapping keys are
// deliberately left alone.
func (x envExpander) walk(root *yaml.Node) {
	pending := []*yaml.Node{root}
	for len(pending) > 0 {
		node := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		switch node.Kind {
		case yaml.ScalarNode:
			x.expandScalar(node)
		case yaml.MappingNode:
			for i := 1; i < len(node.Content); i += 2 {
				pending = append(pending, node.Content[i])
			}
		case yaml.AliasNode:
			if node.Alias != nil {
				pending = append(pending, node.Alias)
			}
		default:
			pending = append(pending, node.Content...)
		}
	}
}

func (x envExpander) expandScalar(node *yaml.Node) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}

	expanded := os.Expand(node.Value, func(name string) string {
		if value, ok := x.lookup(name); ok {
			return value
		}
		x.missing[name] = true
		return ""
	})
	if expanded == node.Value {
		return
	}

	// Quoted scalars stay strings no matter what the value looks like.
	if node.Style != 0 {
		node.Tag = "!!str"
		node.Value = expanded
		return
	}
	node.Tag, node.Value = retypePlainScalar(expanded)
}

func (x envExpander) unresolved() []string {
	if len(x.missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(x.missing))
	for name := range x.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// retypePlainScalar resolves an expanded plain scalar the way the yaml
// parser would, so "300" decodes as an int and "true" as a bool. String
// content keeps its original spelling, newlines included.
func retypePlainScalar(value string) (tag, out string) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err != nil || len(doc.Content) == 0 {
		return "!!str", value
	}
	resolved := doc.Content[0]
	if resolved.Kind != yaml.ScalarNode || resolved.Tag == "!!str" {
		return "!!str", value
	}
	return resolved.Tag, resolved.Value
}
