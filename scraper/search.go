package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopscout/shopscout/engine"
	"github.com/shopscout/shopscout/extract"
	"github.com/shopscout/shopscout/models"
)

// SearchURL builds the search-result page URL for a marketplace and query.
func SearchURL(m models.Marketplace, query string) string {
	switch m {
	case models.MarketplaceAmazon:
		return "https://www.amazon.com/s?k=" + url.QueryEscape(query)
	case models.MarketplaceWalmart:
		return "https://www.walmart.com/search?q=" + url.QueryEscape(query)
	case models.MarketplaceTarget:
		return "https://www.target.com/s?searchTerm=" + url.QueryEscape(query)
	case models.MarketplaceHomeDepot:
		// Home Depot puts the query in the path, not a query parameter.
		return "https://www.homedepot.com/s/" + url.PathEscape(query)
	}
	return ""
}

// Search fetches a marketplace's search-result page for the query and
// extracts the product listings from it.
//
// The fetch strategy follows req.FetchMode: "http" forces the pure HTTP
// engine, "browser" forces headless Chrome, and "auto" (the default) runs
// the staged engine race when the dispatcher is configured.
//
// A page that fetched fine but yields no extractable listings is a success
// with an empty Products slice, not an error.
func (s *Scraper) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	m, err := models.ParseMarketplace(req.Marketplace)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeInvalidInput, "unknown marketplace", err)
	}
	ex, err := extract.New(m)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeInvalidInput, "unsupported marketplace", err)
	}

	timeout := time.Duration(req.Timeout) * time.Second
	if timeout <= 0 || timeout > s.searchCfg.MaxTimeout {
		timeout = s.searchCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetchReq := &engine.FetchRequest{
		URL:         SearchURL(m, req.Query),
		Marketplace: m,
		Timeout:     timeout,
		Stealth:     req.Stealth,
	}

	var result *engine.FetchResult
	switch req.FetchMode {
	case "http":
		result, err = s.httpEngine.Fetch(ctx, fetchReq)
	case "browser":
		result, err = s.FetchRod(ctx, fetchReq)
	default:
		if s.dispatcher != nil {
			result, err = s.dispatcher.Dispatch(ctx, fetchReq)
		} else {
			result, err = s.FetchRod(ctx, fetchReq)
		}
	}
	fetchMs := time.Since(start).Milliseconds()
	if err != nil {
		return nil, categorizeError(err, "search page fetch failed")
	}

	extractStart := time.Now()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeInternal, "failed to parse search page", err)
	}
	products, found, skipped := ex.ExtractAll(doc, result.FinalURL)

	return &models.SearchResponse{
		Success:           true,
		Marketplace:       m,
		Query:             req.Query,
		Products:          products,
		CandidatesFound:   found,
		CandidatesSkipped: skipped,
		StatusCode:        result.StatusCode,
		FinalURL:          result.FinalURL,
		EngineUsed:        result.EngineName,
		Timing: models.TimingInfo{
			TotalMs:   time.Since(start).Milliseconds(),
			FetchMs:   fetchMs,
			ExtractMs: time.Since(extractStart).Milliseconds(),
		},
	}, nil
}

// categorizeError wraps raw errors into typed SearchErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.SearchError {
	var se *models.SearchError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewSearchError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewSearchError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewSearchError(models.ErrCodeNavigation, msg, err)
	}
}
