package extract

import (
	"regexp"

	"github.com/andybalholm/cascadia"
	"github.com/shopscout/shopscout/models"
)

// strategy is one named, pre-compiled selector for locating result elements.
// Strategies are tried in order; attribute-based selectors come before
// class-based ones because attributes survive markup redesigns better.
type strategy struct {
	name string
	sel  cascadia.Selector
}

func st(name, selector string) strategy {
	return strategy{name: name, sel: cascadia.MustCompile(selector)}
}

// profile bundles everything marketplace-specific: how to find result
// elements on a search page and how to pull each field out of one element.
// Every per-field slice is an ordered fallback chain.
type profile struct {
	marketplace models.Marketplace
	origin      string // fallback base for resolving relative links

	results []strategy

	title []string

	price         []string
	priceWhole    string // split-price markup: whole-dollar node
	priceFraction string // split-price markup: cents node

	link  []string
	image []string

	idPatterns []*regexp.Regexp // against the resolved URL, most specific first
	idAttrs    []string         // data attributes on the element itself

	rating      []string
	reviewCount []string
}

var profiles = map[models.Marketplace]*profile{
	models.MarketplaceAmazon: {
		marketplace: models.MarketplaceAmazon,
		origin:      "https://www.amazon.com",
		results: []strategy{
			st("search-result-attr", `div[data-component-type='s-search-result']`),
			st("asin-attr", `div[data-asin]:not([data-asin=''])`),
			st("result-item-class", `div.s-result-item`),
		},
		title: []string{
			`h2 a span`,
			`h2 span`,
			`span.a-text-normal`,
		},
		price: []string{
			`span.a-price:not(.a-text-price) span.a-offscreen`,
			`span.a-price span.a-offscreen`,
		},
		priceWhole:    `span.a-price-whole`,
		priceFraction: `span.a-price-fraction`,
		link: []string{
			`h2 a`,
			`a.a-link-normal.s-no-outline`,
			`a.a-link-normal`,
		},
		image: []string{
			`img.s-image`,
			`img`,
		},
		idPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
			regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
		},
		idAttrs: []string{"data-asin"},
		rating: []string{
			`i.a-icon-star-small span.a-icon-alt`,
			`span.a-icon-alt`,
		},
		reviewCount: []string{
			`span.a-size-base.s-underline-text`,
			`a[href*='#customerReviews'] span`,
		},
	},

	models.MarketplaceWalmart: {
		marketplace: models.MarketplaceWalmart,
		origin:      "https://www.walmart.com",
		results: []strategy{
			st("item-id-attr", `div[data-item-id]`),
			st("stack-attr", `div[data-testid='list-view']`),
			st("gridview-class", `div.search-result-gridview-item`),
		},
		title: []string{
			`span[data-automation-id='product-title']`,
			`a span.lh-title`,
			`a.product-title-link span`,
		},
		price: []string{
			`div[data-automation-id='product-price'] span.w_iUH7`,
			`div[data-automation-id='product-price']`,
			`span.price-main span.visuallyhidden`,
		},
		priceWhole:    `span.price-characteristic`,
		priceFraction: `span.price-mantissa`,
		link: []string{
			`a[link-identifier]`,
			`a[href*='/ip/']`,
			`a`,
		},
		image: []string{
			`img[data-testid='productTileImage']`,
			`img`,
		},
		idPatterns: []*regexp.Regexp{
			// /ip/Some-Title-Slug/123456 — slug then bare numeric id.
			regexp.MustCompile(`/ip/.+/(\d+)(?:[/?]|$)`),
			regexp.MustCompile(`/(\d{6,})(?:[/?]|$)`),
		},
		idAttrs: []string{"data-item-id", "data-product-id"},
		rating: []string{
			`span.stars-container`,
			`span[data-testid='product-ratings']`,
		},
		reviewCount: []string{
			`span[data-testid='product-reviews']`,
			`span.stars-reviews-count`,
		},
	},

	models.MarketplaceTarget: {
		marketplace: models.MarketplaceTarget,
		origin:      "https://www.target.com",
		results: []strategy{
			st("card-wrapper-attr", `div[data-test*='ProductCardWrapper']`),
			st("product-card-attr", `div[data-test='product-card']`),
			st("product-card-class", `div.product-card`),
		},
		title: []string{
			`a[data-test='product-title']`,
			`div[data-test='product-title']`,
			`a.product-title`,
		},
		price: []string{
			`span[data-test='current-price'] span`,
			`span[data-test='current-price']`,
			`div[data-test='product-price']`,
		},
		link: []string{
			`a[data-test='product-title']`,
			`a[href*='/p/']`,
			`a`,
		},
		image: []string{
			`picture img`,
			`img`,
		},
		idPatterns: []*regexp.Regexp{
			// /p/some-product-slug/-/A-86753090
			regexp.MustCompile(`/p/.+/-/A-(\d+)`),
			regexp.MustCompile(`/(\d{6,})(?:[/?]|$)`),
		},
		idAttrs: []string{"data-tcin"},
		rating: []string{
			`div[data-test='ratings'] span.utility-sr-only`,
			`div[data-test='ratings']`,
		},
		reviewCount: []string{
			`span[data-test='rating-count']`,
			`div[data-test='ratings'] span`,
		},
	},

	models.MarketplaceHomeDepot: {
		marketplace: models.MarketplaceHomeDepot,
		origin:      "https://www.homedepot.com",
		results: []strategy{
			st("product-pod-attr", `div[data-testid='product-pod']`),
			st("product-id-attr", `div[data-productid]`),
			st("product-pod-class", `div.product-pod`),
		},
		title: []string{
			`span[data-testid='product-header'] span`,
			`span.product-pod__title__product`,
			`div.product-header__title`,
		},
		price: []string{
			`div[data-testid='price-simple']`,
			`div.price-format__main-price`,
			`div.price`,
		},
		priceWhole:    `span.price-format__dollars`,
		priceFraction: `span.price-format__cents`,
		link: []string{
			`a[data-testid='product-header']`,
			`a[href*='/p/']`,
			`a`,
		},
		image: []string{
			`img.stretchy`,
			`img`,
		},
		idPatterns: []*regexp.Regexp{
			// /p/some-product-slug/312225162
			regexp.MustCompile(`/p/.+/(\d+)(?:[/?]|$)`),
			regexp.MustCompile(`/(\d{6,})(?:[/?]|$)`),
		},
		idAttrs: []string{"data-productid", "data-product-id"},
		rating: []string{
			`span.stars`,
			`div[data-testid='ratings'] span`,
		},
		reviewCount: []string{
			`span.product-pod__ratings-count`,
			`span[data-testid='ratings-count']`,
		},
	},
}
