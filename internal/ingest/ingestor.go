// Package ingest normalizes provider output into document+metadata pairs
// ready for indexing. All per-field type coercion lives here, in one
// explicit mapping table, instead of being scattered across call sites.
package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// fieldParser coerces one raw metadata value into its sanitized form.
type fieldParser func(raw any) any

// fieldParsers is the sanitization table: field name -> parser. Fields
// not listed pass through asScalar.
var fieldParsers = map[string]fieldParser{
	"price":         asPrice,
	"old_price":     asPrice,
	"discount":      asDiscount,
	"rating":        asFloat,
	"reviews_count": asInt,
	"features":      asStringList,
	"box_contents":  asStringList,
}

// Sanitize returns a copy of the document with every metadata value
// coerced through the mapping table. Unparsable numeric fields default
// to zero; nothing here ever fails.
func Sanitize(doc domain.Document) domain.Document {
	if doc.Metadata == nil {
		return doc
	}

	metadata := make(map[string]any, len(doc.Metadata))
	for key, raw := range doc.Metadata {
		parser, ok := fieldParsers[key]
		if !ok {
			parser = asScalar
		}
		metadata[key] = parser(raw)
	}

	doc.Metadata = metadata
	return doc
}

// Documents sanitizes a batch, dropping documents with no text.
func Documents(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		out = append(out, Sanitize(doc))
	}
	return out
}

// ProductDocument converts a provider ProductRecord into an indexable
// document. The record is discarded after conversion.
func ProductDocument(record domain.ProductRecord) domain.Document {
	metadata := map[string]any{
		"name":          record.Name,
		"url":           record.URL,
		"source":        record.Source,
		"price":         record.Price.Current,
		"currency":      record.Price.Currency,
		"category":      record.Category,
		"rating":        record.Reviews.Average,
		"reviews_count": record.Reviews.Count,
	}

	if record.Price.Old > 0 {
		metadata["old_price"] = record.Price.Old
	}
	if record.Price.Discount > 0 {
		metadata["discount"] = record.Price.Discount
	}
	if record.Brand != "" {
		metadata["brand"] = record.Brand
	}
	if record.ImageURL != "" {
		metadata["image_url"] = record.ImageURL
	}
	if record.Seller.Name != "" {
		metadata["seller"] = record.Seller.Name
	}
	if len(record.Specs.KeyFeatures) > 0 {
		metadata["features"] = append([]string(nil), record.Specs.KeyFeatures...)
	}
	if len(record.Specs.BoxContents) > 0 {
		metadata["box_contents"] = append([]string(nil), record.Specs.BoxContents...)
	}
	if len(record.Specs.Details) > 0 {
		metadata["specifications"] = specLines(record.Specs.Details)
	}

	return Sanitize(domain.Document{
		ID:       record.ID,
		Text:     productText(record),
		Metadata: metadata,
	})
}

// ProductDocuments converts a batch of records
func ProductDocuments(records []domain.ProductRecord) []domain.Document {
	docs := make([]domain.Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, ProductDocument(record))
	}
	return docs
}

// productText assembles the searchable text body of a product from its
// name, description, features and specifications.
func productText(record domain.ProductRecord) string {
	var parts []string
	if record.Name != "" {
		parts = append(parts, record.Name)
	}
	if record.Description != "" {
		parts = append(parts, record.Description)
	}
	if len(record.Specs.KeyFeatures) > 0 {
		parts = append(parts, strings.Join(record.Specs.KeyFeatures, ". "))
	}
	if len(record.Specs.Details) > 0 {
		parts = append(parts, strings.Join(specLines(record.Specs.Details), ". "))
	}
	return strings.Join(parts, "\n")
}

// specLines renders a spec map as sorted "key: value" lines so output is
// deterministic.
func specLines(details map[string]string) []string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+details[k])
	}
	return lines
}

// Field parsers

func asPrice(raw any) any {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		value, _ := domain.ParsePrice(v)
		return value
	}
	return 0.0
}

func asDiscount(raw any) any {
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return -v
		}
		return v
	case string:
		return domain.ParseDiscount(v)
	}
	return asPrice(raw)
}

func asFloat(raw any) any {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		value, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0.0
		}
		return value
	}
	return 0.0
}

func asInt(raw any) any {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
		value, err := strconv.Atoi(cleaned)
		if err != nil {
			return 0
		}
		return value
	}
	return 0
}

func asStringList(raw any) any {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	case string:
		if v == "" {
			return []string(nil)
		}
		return []string{v}
	}
	return []string(nil)
}

// asScalar keeps scalars and string lists, stringifying anything else so
// the index boundary only ever sees schema-safe values.
func asScalar(raw any) any {
	switch v := raw.(type) {
	case string, bool, float64, int, int64:
		return v
	case float32:
		return float64(v)
	case []string:
		return v
	case []any:
		return asStringList(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
