package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// listingPage is one page of the storefront search endpoint
type listingPage struct {
	Products   []listingProduct `json:"products"`
	TotalPages int              `json:"total_pages"`
}

// listingProduct carries the summary fields present on listing pages.
// Prices arrive as display strings, currency sign and all.
type listingProduct struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	OldPrice string `json:"old_price"`
	Discount string `json:"discount"`
	URL      string `json:"url"`
	Currency string `json:"currency"`
	ImageURL string `json:"image"`
	Category string `json:"category"`
}

// productDetail is the per-product detail endpoint payload
type productDetail struct {
	Product struct {
		Name        string `json:"name"`
		Brand       string `json:"brand"`
		Description string `json:"description"`
		Category    string `json:"category"`
		ImageURL    string `json:"image"`
	} `json:"product"`
	Rating struct {
		Average   float64        `json:"average"`
		Total     int            `json:"total"`
		Histogram map[string]int `json:"histogram"`
		Reviews   []struct {
			Title  string  `json:"title"`
			Text   string  `json:"text"`
			Rating float64 `json:"rating"`
			Author string  `json:"author"`
			Date   string  `json:"date"`
		} `json:"reviews"`
	} `json:"rating"`
	Specifications struct {
		KeyFeatures []string          `json:"key_features"`
		BoxContents []string          `json:"box_contents"`
		Details     map[string]string `json:"details"`
	} `json:"specifications"`
	Seller struct {
		Name    string            `json:"name"`
		Score   string            `json:"score"`
		Metrics map[string]string `json:"metrics"`
	} `json:"seller"`
}

func parseListing(data []byte) (*listingPage, error) {
	var page listingPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("invalid listing payload: %w", err)
	}
	return &page, nil
}

func parseDetail(data []byte) (*productDetail, error) {
	var detail productDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("invalid detail payload: %w", err)
	}
	return &detail, nil
}

// buildRecord merges listing and detail data into a ProductRecord. A
// product without a parsable current price is rejected; old price and
// discount degrade to zero instead.
func (a *Adapter) buildRecord(listing listingProduct, detail *productDetail) (domain.ProductRecord, bool) {
	price, ok := domain.ParsePrice(listing.Price)
	if !ok {
		return domain.ProductRecord{}, false
	}
	oldPrice, _ := domain.ParsePrice(listing.OldPrice)

	record := domain.ProductRecord{
		ID:       listing.SKU,
		Name:     listing.Name,
		URL:      listing.URL,
		Category: listing.Category,
		ImageURL: listing.ImageURL,
		Source:   a.Name(),
		Price: domain.PriceDetail{
			Current:  price,
			Old:      oldPrice,
			Discount: domain.ParseDiscount(listing.Discount),
			Currency: listing.Currency,
		},
	}

	if detail == nil {
		return record, true
	}

	if detail.Product.Name != "" {
		record.Name = detail.Product.Name
	}
	if detail.Product.Category != "" {
		record.Category = detail.Product.Category
	}
	if detail.Product.ImageURL != "" {
		record.ImageURL = detail.Product.ImageURL
	}
	record.Brand = detail.Product.Brand
	record.Description = detail.Product.Description

	record.Specs = domain.Specification{
		KeyFeatures: detail.Specifications.KeyFeatures,
		BoxContents: detail.Specifications.BoxContents,
		Details:     detail.Specifications.Details,
	}
	record.Seller = domain.SellerDetail{
		Name:    detail.Seller.Name,
		Score:   detail.Seller.Score,
		Metrics: detail.Seller.Metrics,
	}

	record.Reviews = domain.ReviewSummary{
		Average:   detail.Rating.Average,
		Count:     detail.Rating.Total,
		Histogram: detail.Rating.Histogram,
	}
	for _, review := range detail.Rating.Reviews {
		record.Reviews.Reviews = append(record.Reviews.Reviews, domain.Review{
			Title:  review.Title,
			Text:   review.Text,
			Rating: review.Rating,
			Author: review.Author,
			Date:   review.Date,
		})
	}

	return record, true
}
