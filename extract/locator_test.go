package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopscout/shopscout/models"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func newExtractor(t *testing.T, m models.Marketplace) *Extractor {
	t.Helper()
	e, err := New(m)
	if err != nil {
		t.Fatalf("New(%s): %v", m, err)
	}
	return e
}

func TestLocate_AttributeStrategyWinsOverClass(t *testing.T) {
	// Both the attribute-based and the class-based strategy would match
	// elements on this page; only the attribute strategy's matches may be
	// returned — first non-empty wins, no merging across strategies.
	html := `<html><body>
		<div data-item-id="111"><span>item one</span></div>
		<div data-item-id="222"><span>item two</span></div>
		<div class="search-result-gridview-item"><span>legacy markup item</span></div>
	</body></html>`

	e := newExtractor(t, models.MarketplaceWalmart)
	results := e.Locate(parseDoc(t, html))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (attribute strategy only)", len(results))
	}
	for i, sel := range results {
		if _, ok := sel.Attr("data-item-id"); !ok {
			t.Errorf("result %d did not come from the attribute strategy", i)
		}
	}
}

func TestLocate_FallsBackToClassStrategy(t *testing.T) {
	html := `<html><body>
		<div class="search-result-gridview-item"><span>legacy one</span></div>
		<div class="search-result-gridview-item"><span>legacy two</span></div>
	</body></html>`

	e := newExtractor(t, models.MarketplaceWalmart)
	results := e.Locate(parseDoc(t, html))

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 from the class fallback", len(results))
	}
}

func TestLocate_NoMatchesReturnsEmpty(t *testing.T) {
	html := `<html><body><p>no results found for your search</p></body></html>`

	for _, m := range models.AllMarketplaces {
		e := newExtractor(t, m)
		if results := e.Locate(parseDoc(t, html)); len(results) != 0 {
			t.Errorf("%s: got %d results on an empty page, want 0", m, len(results))
		}
	}
}

func TestLocate_AmazonSkipsEmptyASIN(t *testing.T) {
	// Amazon pads result grids with placeholder divs carrying an empty
	// data-asin; the attribute strategy must not pick those up.
	html := `<html><body>
		<div data-asin=""><span>ad placeholder</span></div>
		<div data-asin="B08N5WRWNW"><span>real product</span></div>
	</body></html>`

	e := newExtractor(t, models.MarketplaceAmazon)
	results := e.Locate(parseDoc(t, html))

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if asin, _ := results[0].Attr("data-asin"); asin != "B08N5WRWNW" {
		t.Errorf("wrong element located: data-asin=%q", asin)
	}
}

func TestLocate_InternalFaultDegradesToEmpty(t *testing.T) {
	// Discovery is best-effort: a fault while querying (here a nil
	// document) is recovered and reported as "no results", not an error.
	e := newExtractor(t, models.MarketplaceWalmart)
	if results := e.Locate(nil); results != nil {
		t.Errorf("Locate(nil) = %v, want nil", results)
	}
}

func TestNew_UnknownMarketplace(t *testing.T) {
	if _, err := New(models.Marketplace("ebay")); err == nil {
		t.Error("expected error for unsupported marketplace")
	}
}
