package tools

import "fmt"

// Field helpers for reading node input maps. Graph specs travel through
// JSON (saved templates, headless run configs), so numbers may arrive as
// float64 and need coercion.

// StringField returns the string value at key, reporting whether a string
// was present.
func StringField(input map[string]any, key string) (string, bool) {
	v, ok := input[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// RequiredString returns the non-empty string at key or an error naming the
// missing field.
func RequiredString(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// IntField returns the integer at key, coercing JSON numbers, or fallback
// when the key is absent or not numeric.
func IntField(input map[string]any, key string, fallback int) int {
	switch v := input[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// BoolField returns the boolean at key or fallback when absent or not a
// boolean.
func BoolField(input map[string]any, key string, fallback bool) bool {
	if v, ok := input[key].(bool); ok {
		return v
	}
	return fallback
}
