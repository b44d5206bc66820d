package models

import "fmt"

// Marketplace identifies one of the supported e-commerce sites.
type Marketplace string

const (
	MarketplaceAmazon    Marketplace = "amazon"
	MarketplaceWalmart   Marketplace = "walmart"
	MarketplaceTarget    Marketplace = "target"
	MarketplaceHomeDepot Marketplace = "homedepot"
)

// AllMarketplaces lists every supported marketplace in a stable order.
var AllMarketplaces = []Marketplace{
	MarketplaceAmazon,
	MarketplaceWalmart,
	MarketplaceTarget,
	MarketplaceHomeDepot,
}

// ParseMarketplace validates a marketplace name from user input.
func ParseMarketplace(s string) (Marketplace, error) {
	m := Marketplace(s)
	switch m {
	case MarketplaceAmazon, MarketplaceWalmart, MarketplaceTarget, MarketplaceHomeDepot:
		return m, nil
	}
	return "", fmt.Errorf("unknown marketplace %q", s)
}

// Product is one listing extracted from a marketplace search-result page.
//
// Title, Price and URL are always set: extraction refuses to produce a record
// when any of them cannot be resolved. The remaining fields are best-effort.
type Product struct {
	// Title is the listing title, trimmed and non-empty.
	Title string `json:"title"`

	// Price is the listing price in currency units (dollars).
	Price float64 `json:"price"`

	// URL is the absolute listing URL, resolved against the page origin.
	URL string `json:"url"`

	// ItemID is the marketplace's own listing identifier (ASIN, item number),
	// when one could be derived from the URL or the element's data attributes.
	ItemID string `json:"item_id,omitempty"`

	// ImageURL is the listing's thumbnail URL.
	ImageURL string `json:"image_url,omitempty"`

	// Marketplace records which site the listing came from.
	Marketplace Marketplace `json:"marketplace"`

	// Rating is the average star rating on a 0-5 scale.
	Rating *float64 `json:"rating,omitempty"`

	// ReviewCount is the number of reviews behind the rating.
	ReviewCount *int `json:"review_count,omitempty"`
}

// Offer is a product scored against a reference title during comparison.
type Offer struct {
	Product

	// Similarity is the word-containment score against the reference title,
	// in [0,1]. Offers below the requested minimum are filtered out.
	Similarity float64 `json:"similarity"`
}
