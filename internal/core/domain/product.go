package domain

// ProductRecord is the provider-side representation of a catalog listing.
// It is constructed by a provider adapter from fetched content, converted
// into a Document by ingestion, and never mutated after construction.
// Invalid or partial fields default to empty/zero rather than failing
// construction.
type ProductRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	ImageURL string `json:"image_url"`
	Source   string `json:"source"`

	Price   PriceDetail    `json:"price"`
	Seller  SellerDetail   `json:"seller"`
	Specs   Specification  `json:"specifications"`
	Reviews ReviewSummary  `json:"reviews"`

	// Description is the free-form product description from the detail page
	Description string `json:"description"`
}

// PriceDetail holds the numeric price block of a product
type PriceDetail struct {
	Current  float64 `json:"current"`
	Old      float64 `json:"old,omitempty"`      // 0 when no prior price is shown
	Discount float64 `json:"discount,omitempty"` // percentage, 0 when none
	Currency string  `json:"currency"`
}

// SellerDetail holds seller information from a product detail page
type SellerDetail struct {
	Name    string            `json:"name"`
	Score   string            `json:"score,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty"`
}

// Specification holds the structured specification block of a product
type Specification struct {
	KeyFeatures []string          `json:"key_features,omitempty"`
	BoxContents []string          `json:"box_contents,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// ReviewSummary aggregates product reviews
type ReviewSummary struct {
	Average   float64        `json:"average"`
	Count     int            `json:"count"`
	Histogram map[string]int `json:"histogram,omitempty"` // star rating -> count
	Reviews   []Review       `json:"reviews,omitempty"`
}

// Review is a single product review
type Review struct {
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
	Author string  `json:"author,omitempty"`
	Date   string  `json:"date,omitempty"`
}
