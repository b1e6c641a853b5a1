package security

import "html"

// Sanitize walks an arbitrary decoded-JSON structure and HTML-entity-encodes
// every string leaf, so client-supplied text is inert in rendering contexts.
// Numeric, boolean and nil leaves pass through unchanged. The input is not
// mutated; maps and slices are rebuilt.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return html.EscapeString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = Sanitize(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = Sanitize(inner)
		}
		return out
	default:
		return v
	}
}

// SanitizeString escapes a single string value.
func SanitizeString(s string) string {
	return html.EscapeString(s)
}
