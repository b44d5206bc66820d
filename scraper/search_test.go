package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopscout/shopscout/config"
	"github.com/shopscout/shopscout/engine"
	"github.com/shopscout/shopscout/models"
)

// stubEngine serves a canned page so Search can run without a browser.
type stubEngine struct {
	name string
	html string
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	return &engine.FetchResult{
		HTML:       e.html,
		StatusCode: 200,
		FinalURL:   req.URL,
		EngineName: e.name,
	}, nil
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		marketplace models.Marketplace
		query       string
		want        string
	}{
		{models.MarketplaceAmazon, "usb c cable", "https://www.amazon.com/s?k=usb+c+cable"},
		{models.MarketplaceWalmart, "usb c cable", "https://www.walmart.com/search?q=usb+c+cable"},
		{models.MarketplaceTarget, "usb c cable", "https://www.target.com/s?searchTerm=usb+c+cable"},
		{models.MarketplaceHomeDepot, "usb c cable", "https://www.homedepot.com/s/usb%20c%20cable"},
	}
	for _, tt := range tests {
		if got := SearchURL(tt.marketplace, tt.query); got != tt.want {
			t.Errorf("SearchURL(%s, %q) = %q, want %q", tt.marketplace, tt.query, got, tt.want)
		}
	}
}

func TestSearchURLUnknownMarketplace(t *testing.T) {
	if got := SearchURL(models.Marketplace("ebay"), "x"); got != "" {
		t.Errorf("got %q, want empty for unsupported marketplace", got)
	}
}

func TestSearchReportsEngineUsed(t *testing.T) {
	page := `<html><body>
	<div data-item-id="42">
		<a link-identifier="42" href="/ip/Widget/42">
			<span data-automation-id="product-title">Blue Widget</span>
		</a>
		<div data-automation-id="product-price"><span class="w_iUH7">current price $9.99</span></div>
	</div>
	</body></html>`

	memory := engine.NewMarketplaceMemory(time.Hour)
	defer memory.Stop()
	d := engine.NewDispatcher(
		[]engine.Engine{&stubEngine{name: "http", html: page}},
		[]time.Duration{0},
		memory,
	)

	s := &Scraper{searchCfg: config.SearchConfig{MaxTimeout: 30 * time.Second}}
	s.SetDispatcher(d)

	resp, err := s.Search(context.Background(), &models.SearchRequest{
		Marketplace: "walmart",
		Query:       "blue widget",
		FetchMode:   "auto",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.EngineUsed != "http" {
		t.Errorf("engine used = %q, want the winning engine's name", resp.EngineUsed)
	}
	if len(resp.Products) != 1 || resp.Products[0].Title != "Blue Widget" {
		t.Errorf("products = %+v, want the single extracted listing", resp.Products)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestCategorizeError(t *testing.T) {
	if se := categorizeError(context.DeadlineExceeded, "m"); se.Code != models.ErrCodeTimeout {
		t.Errorf("deadline exceeded -> %s, want %s", se.Code, models.ErrCodeTimeout)
	}
	if se := categorizeError(context.Canceled, "m"); se.Code != models.ErrCodeTimeout {
		t.Errorf("canceled -> %s, want %s", se.Code, models.ErrCodeTimeout)
	}
	if se := categorizeError(errors.New("net/http: TLS handshake failure"), "m"); se.Code != models.ErrCodeNavigation {
		t.Errorf("generic -> %s, want %s", se.Code, models.ErrCodeNavigation)
	}

	// Already-typed errors pass through unchanged.
	orig := models.NewSearchError(models.ErrCodeBrowserCrash, "pool exhausted", nil)
	if se := categorizeError(orig, "m"); se != orig {
		t.Error("typed error should pass through without re-wrapping")
	}
}

func TestIsTrackerDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"cdn.quantummetric.com", true},
		{"www.walmart.com", false},
		{"i5.walmartimages.com", false},
		{"m.media-amazon.com", false},
	}
	for _, tt := range tests {
		if got := isTrackerDomain(tt.host); got != tt.want {
			t.Errorf("isTrackerDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
