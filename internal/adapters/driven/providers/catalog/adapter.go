// Package catalog fetches product data from a storefront's JSON
// endpoints: a paged listing per query, then one detail document per
// product.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/fetch"
	"github.com/custodia-labs/shopscout-core/internal/ingest"
)

// Ensure Adapter implements Provider
var _ driven.Provider = (*Adapter)(nil)

// Config holds catalog adapter configuration
type Config struct {
	// BaseURL is the storefront API root
	BaseURL string

	// MaxPages caps how many listing pages one query fans out to
	MaxPages int

	Logger *slog.Logger
}

// DefaultConfig returns production defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  baseURL,
		MaxPages: 3,
	}
}

// Adapter implements Provider against a product catalog. One Run fans
// out across listing pages, then across product detail endpoints, both
// through the rate-limited fetcher.
type Adapter struct {
	cfg     Config
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewAdapter creates a new catalog Adapter
func NewAdapter(cfg Config, fetcher *fetch.Fetcher) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultConfig("").MaxPages
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, fetcher: fetcher, logger: logger}, nil
}

// Name identifies the provider in logs and metadata
func (a *Adapter) Name() string {
	return "catalog"
}

// Run searches the catalog and returns one document per product.
// Products whose price cannot be parsed are dropped; a failed detail
// fetch degrades that product to its listing fields.
func (a *Adapter) Run(ctx context.Context, query string) ([]domain.Document, error) {
	listings, err := a.collectListings(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return []domain.Document{}, nil
	}

	details := a.collectDetails(ctx, listings)

	records := make([]domain.ProductRecord, 0, len(listings))
	for i, listing := range listings {
		record, ok := a.buildRecord(listing, details[i])
		if !ok {
			a.logger.Debug("dropping product with unparsable price", "sku", listing.SKU, "price", listing.Price)
			continue
		}
		records = append(records, record)
	}

	return ingest.ProductDocuments(records), nil
}

// collectListings fetches page 1 to learn the page count, then the
// remaining pages concurrently
func (a *Adapter) collectListings(ctx context.Context, query string) ([]listingProduct, error) {
	first, err := a.fetcher.FetchOne(ctx, a.listingURL(query, 1))
	if err != nil {
		return nil, fmt.Errorf("fetching catalog listing: %w", err)
	}

	page, err := parseListing(first.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog listing: %w", err)
	}

	products := page.Products
	totalPages := page.TotalPages
	if totalPages > a.cfg.MaxPages {
		totalPages = a.cfg.MaxPages
	}
	if totalPages <= 1 {
		return products, nil
	}

	urls := make([]string, 0, totalPages-1)
	for p := 2; p <= totalPages; p++ {
		urls = append(urls, a.listingURL(query, p))
	}

	for _, result := range a.fetcher.Fetch(ctx, urls) {
		if result == nil {
			continue
		}
		page, err := parseListing(result.Body)
		if err != nil {
			a.logger.Warn("skipping unparsable listing page", "url", result.URL, "error", err)
			continue
		}
		products = append(products, page.Products...)
	}
	return products, nil
}

// collectDetails fetches the detail endpoint for every listed product.
// The returned slice is parallel to listings; a nil entry means the
// detail fetch or parse failed.
func (a *Adapter) collectDetails(ctx context.Context, listings []listingProduct) []*productDetail {
	urls := make([]string, len(listings))
	for i, listing := range listings {
		urls[i] = a.detailURL(listing.SKU)
	}

	details := make([]*productDetail, len(listings))
	for i, result := range a.fetcher.Fetch(ctx, urls) {
		if result == nil {
			continue
		}
		detail, err := parseDetail(result.Body)
		if err != nil {
			a.logger.Warn("skipping unparsable product detail", "url", result.URL, "error", err)
			continue
		}
		details[i] = detail
	}
	return details
}

func (a *Adapter) listingURL(query string, page int) string {
	return fmt.Sprintf("%s/search?q=%s&page=%d", a.cfg.BaseURL, url.QueryEscape(query), page)
}

func (a *Adapter) detailURL(sku string) string {
	return fmt.Sprintf("%s/products/%s", a.cfg.BaseURL, url.PathEscape(sku))
}
