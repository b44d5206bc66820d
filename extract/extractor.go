package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopscout/shopscout/models"
)

var (
	// Star fill drawn via CSS width, e.g. style="width: 80%" → 4.0 stars.
	reWidthPercent = regexp.MustCompile(`width:\s*([\d.]+)%`)

	// First decimal in free text, e.g. "4.5 out of 5 stars".
	reDecimal = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// First integer, possibly comma-grouped, e.g. "1,234 reviews".
	reGroupedInt = regexp.MustCompile(`\d[\d,]*`)
)

// ExtractAll runs the full pass for one page: locate candidate elements,
// extract each one, and report how many candidates were found and how many
// were skipped for missing mandatory fields. Relative links are resolved
// against pageURL, falling back to the marketplace's canonical origin when
// pageURL does not parse.
func (e *Extractor) ExtractAll(doc *goquery.Document, pageURL string) (products []models.Product, found, skipped int) {
	origin, err := url.Parse(pageURL)
	if err != nil || origin.Host == "" {
		origin, _ = url.Parse(e.profile.origin)
	}

	candidates := e.Locate(doc)
	products = make([]models.Product, 0, len(candidates))
	for _, el := range candidates {
		if p := e.Extract(el, origin); p != nil {
			products = append(products, *p)
		} else {
			skipped++
		}
	}
	return products, len(candidates), skipped
}

// Extract pulls a product record out of one candidate element.
//
// Title, price and URL are mandatory: if any of them cannot be resolved the
// whole record is invalid and nil is returned — never a partial record.
// The remaining fields are filled best-effort. Any panic during extraction
// is recovered and converted to nil.
func (e *Extractor) Extract(el *goquery.Selection, origin *url.URL) (p *models.Product) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("candidate extraction panicked",
				"marketplace", e.profile.marketplace, "panic", r)
			p = nil
		}
	}()

	title := e.extractTitle(el)
	if title == "" {
		slog.Debug("candidate skipped: no title",
			"marketplace", e.profile.marketplace)
		return nil
	}

	price, ok := e.extractPrice(el)
	if !ok {
		slog.Debug("candidate skipped: unparseable price",
			"marketplace", e.profile.marketplace, "title", title)
		return nil
	}

	link := e.extractURL(el, origin)
	if link == "" {
		slog.Debug("candidate skipped: no link",
			"marketplace", e.profile.marketplace, "title", title)
		return nil
	}

	p = &models.Product{
		Title:       title,
		Price:       price,
		URL:         link,
		Marketplace: e.profile.marketplace,
	}
	p.ItemID = e.extractItemID(el, link)
	p.ImageURL = e.extractImage(el, origin)
	p.Rating = e.extractRating(el)
	p.ReviewCount = e.extractReviewCount(el)
	return p
}

// extractTitle returns the first non-empty trimmed text from the title chain.
func (e *Extractor) extractTitle(el *goquery.Selection) string {
	for _, sel := range e.profile.title {
		if t := strings.TrimSpace(el.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// extractPrice tries each price selector's text (or content attribute for
// meta-style nodes) through the staged text parser, then falls back to the
// split whole/cents markup some sites render prices with.
func (e *Extractor) extractPrice(el *goquery.Selection) (float64, bool) {
	for _, sel := range e.profile.price {
		node := el.Find(sel).First()
		text := strings.TrimSpace(node.Text())
		if text == "" {
			text, _ = node.Attr("content")
		}
		if v, ok := ParsePriceText(text); ok {
			return v, true
		}
	}

	if e.profile.priceWhole != "" {
		whole := el.Find(e.profile.priceWhole).First().Text()
		cents := el.Find(e.profile.priceFraction).First().Text()
		if v, ok := CombineSplitPrice(whole, cents); ok {
			return v, true
		}
	}
	return 0, false
}

// extractURL reads the first usable href from the link chain and resolves it
// to an absolute URL against the page origin.
func (e *Extractor) extractURL(el *goquery.Selection, origin *url.URL) string {
	for _, sel := range e.profile.link {
		href, ok := el.Find(sel).First().Attr("href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		if resolved := origin.ResolveReference(ref).String(); resolved != "" {
			return resolved
		}
	}
	return ""
}

// extractItemID derives the marketplace listing id: URL path patterns first
// (most specific first, stopping at the first match), then data attributes
// on the element itself.
func (e *Extractor) extractItemID(el *goquery.Selection, resolvedURL string) string {
	for _, re := range e.profile.idPatterns {
		if m := re.FindStringSubmatch(resolvedURL); len(m) > 1 {
			return m[1]
		}
	}
	for _, attr := range e.profile.idAttrs {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// extractImage returns the first image source from the image chain,
// resolved absolute. Lazy-loaded images keep the real source in data-src.
func (e *Extractor) extractImage(el *goquery.Selection, origin *url.URL) string {
	for _, sel := range e.profile.image {
		node := el.Find(sel).First()
		src, ok := node.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = node.Attr("data-src")
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		ref, err := url.Parse(src)
		if err != nil {
			continue
		}
		return origin.ResolveReference(ref).String()
	}
	return ""
}

// extractRating reads the star rating. The dominant encoding is a star-fill
// container whose inline style carries a percentage width: 80% → 4.0 on the
// 0-5 scale. When no width style is present, the first decimal in the
// element's text is used instead ("4.5 out of 5 stars").
func (e *Extractor) extractRating(el *goquery.Selection) *float64 {
	for _, sel := range e.profile.rating {
		node := el.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		if style, ok := node.Attr("style"); ok {
			if m := reWidthPercent.FindStringSubmatch(style); m != nil {
				if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
					r := pct / 100 * 5
					return &r
				}
			}
		}

		if m := reDecimal.FindString(node.Text()); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil && v >= 0 && v <= 5 {
				return &v
			}
		}
	}
	return nil
}

// extractReviewCount parses the first comma-grouped integer from the review
// count element's text, stripping thousands separators.
func (e *Extractor) extractReviewCount(el *goquery.Selection) *int {
	for _, sel := range e.profile.reviewCount {
		text := el.Find(sel).First().Text()
		m := reGroupedInt.FindString(text)
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}
