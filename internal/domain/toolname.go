package domain

import (
	"strings"
	"unicode"
)

// DeriveToolName builds the MCP-facing name for a route:
// snake_case(routeName) + "_" + snake_case(namespace), truncated to
// MaxToolNameLength. Deterministic for identical inputs; uniqueness across
// sources is not guaranteed (see catalog builder for collision handling).
func DeriveToolName(routeName, namespace string) string {
	name := SnakeCase(routeName) + "_" + SnakeCase(namespace)
	if len(name) > MaxToolNameLength {
		name = strings.TrimRight(name[:MaxToolNameLength], "_")
	}
	return name
}

// SnakeCase lower-cases s, splits camelCase words, and collapses
// ':', '-', '/', '.' and whitespace runs into single underscores.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	lastUnderscore := true
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			var prev, next rune
			if i > 0 {
				prev = runes[i-1]
			}
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			boundary := unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && unicode.IsLower(next))
			if boundary && !lastUnderscore {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// SnakeSegments returns the underscore-separated segments of SnakeCase(s).
func SnakeSegments(s string) []string {
	snake := SnakeCase(s)
	if snake == "" {
		return nil
	}
	return strings.Split(snake, "_")
}
