// Package fieldmap translates shallow map keys between the snake_case wire
// convention and camelCase. Nested values are carried through untouched.
package fieldmap

import (
	"strings"
	"unicode"
)

// ToSnake returns a copy of m with every top-level key converted to
// snake_case.
func ToSnake(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[SnakeKey(k)] = v
	}
	return out
}

// ToCamel returns a copy of m with every top-level key converted to
// camelCase.
func ToCamel(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[CamelKey(k)] = v
	}
	return out
}

// SnakeKey converts a camelCase key to snake_case.
func SnakeKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelKey converts a snake_case key to camelCase.
func CamelKey(key string) string {
	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
