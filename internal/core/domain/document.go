package domain

import (
	"fmt"
	"strings"
)

// Document is the unit of indexing and retrieval. It is produced by
// ingestion and immutable once indexed.
//
// Metadata values are sanitized scalars (string, float64, bool) or string
// lists. Lists are flattened to delimited strings at the index boundary
// (FlattenValue) while the structured value is preserved in the result
// payload returned to the caller.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// MetadataString returns a metadata value as a string, or "" when absent.
func (d *Document) MetadataString(key string) string {
	v, ok := d.Metadata[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// MetadataFloat returns a numeric metadata value. The second return is
// false when the key is absent or not numeric.
func (d *Document) MetadataFloat(key string) (float64, bool) {
	v, ok := d.Metadata[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	}
	return 0, false
}

// MetadataList returns a list metadata value. A scalar string is treated
// as a single-element list so callers can iterate uniformly.
func (d *Document) MetadataList(key string) []string {
	v, ok := d.Metadata[key]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	}
	return nil
}

// ListDelimiter joins list metadata values when flattening for index
// backends that only accept scalar fields.
const ListDelimiter = "; "

// FlattenValue coerces a metadata value into a scalar acceptable to index
// backends. Lists become delimited strings; scalars pass through.
func FlattenValue(v any) any {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ListDelimiter)
	case []any:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		return strings.Join(parts, ListDelimiter)
	case string, float64, bool, int, int64, float32:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FlattenMetadata returns a copy of metadata with every value flattened
// to a scalar. The input map is not modified.
func FlattenMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = FlattenValue(v)
	}
	return out
}
