// Package filter applies structured constraints to ranked documents
// after retrieval. Filtering never reorders: documents that pass keep
// their relative ranking.
package filter

import (
	"strings"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// Apply returns the documents matching every constraint in the filter,
// preserving input order. A nil or empty filter returns the input
// unchanged. Applying the same filter twice yields the same result.
func Apply(docs []domain.Document, f *domain.ResultFilter) []domain.Document {
	if f == nil || f.Empty() {
		return docs
	}

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, f) {
			out = append(out, doc)
		}
	}
	return out
}

func matches(doc domain.Document, f *domain.ResultFilter) bool {
	if f.PriceMin != nil || f.PriceMax != nil {
		price, ok := priceOf(doc)
		if f.PriceMin != nil && ok && price < *f.PriceMin {
			return false
		}
		// A document without a readable price cannot prove it is under
		// the cap, so an upper bound excludes it
		if f.PriceMax != nil && (!ok || price > *f.PriceMax) {
			return false
		}
	}

	if f.Category != "" {
		category := doc.MetadataString("category")
		if !strings.Contains(strings.ToLower(category), strings.ToLower(f.Category)) {
			return false
		}
	}

	if len(f.Features) > 0 && !hasFeatures(doc, f.Features) {
		return false
	}

	return true
}

// priceOf reads the price metadata field tolerantly: numeric values are
// used as-is, strings go through currency-aware parsing.
func priceOf(doc domain.Document) (float64, bool) {
	switch v := doc.Metadata["price"].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return domain.ParsePrice(v)
	}
	return 0, false
}

// hasFeatures reports whether every wanted feature is covered by some
// entry in the document's feature list, case-insensitively and by
// substring so "8gb" matches "8GB RAM".
func hasFeatures(doc domain.Document, wanted []string) bool {
	have := doc.MetadataList("features")

	for _, want := range wanted {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, f := range have {
			if strings.Contains(strings.ToLower(f), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
