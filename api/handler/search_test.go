package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopscout/shopscout/cache"
	"github.com/shopscout/shopscout/metrics"
	"github.com/shopscout/shopscout/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSearcher struct {
	resp  *models.SearchResponse
	err   error
	calls int
}

func (f *fakeSearcher) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	f.calls++
	return f.resp, f.err
}

func doJSON(t *testing.T, h gin.HandlerFunc, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Handle(method, path, h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSearchHandlerOK(t *testing.T) {
	sc := &fakeSearcher{resp: &models.SearchResponse{
		Success:     true,
		Marketplace: models.MarketplaceAmazon,
		Query:       "usb cable",
		Products: []models.Product{
			{Title: "USB Cable 6ft", Price: 7.99, URL: "https://www.amazon.com/dp/B000000000", Marketplace: models.MarketplaceAmazon},
		},
		CandidatesFound: 1,
	}}

	w := doJSON(t, Search(sc, nil), http.MethodPost, "/search",
		`{"marketplace":"amazon","query":"usb cable"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || len(resp.Products) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchHandlerValidation(t *testing.T) {
	sc := &fakeSearcher{}
	tests := []string{
		`{}`,
		`{"marketplace":"ebay","query":"x"}`,
		`{"marketplace":"amazon"}`,
		`{"marketplace":"amazon","query":"x","timeout":999}`,
		`{"marketplace":"amazon","query":"x","fetch_mode":"teleport"}`,
		`not json`,
	}
	for _, body := range tests {
		w := doJSON(t, Search(sc, nil), http.MethodPost, "/search", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
	if sc.calls != 0 {
		t.Errorf("searcher called %d times for invalid input", sc.calls)
	}
}

func TestSearchHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeNavigation, http.StatusBadGateway},
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeBrowserCrash, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		sc := &fakeSearcher{err: models.NewSearchError(tt.code, "boom", nil)}
		w := doJSON(t, Search(sc, nil), http.MethodPost, "/search",
			`{"marketplace":"walmart","query":"tv"}`)
		if w.Code != tt.want {
			t.Errorf("code %s: status = %d, want %d", tt.code, w.Code, tt.want)
		}
		var resp models.SearchResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Error == nil || resp.Error.Code != tt.code {
			t.Errorf("code %s: error detail = %+v", tt.code, resp.Error)
		}
	}
}

func TestSearchHandlerCacheHit(t *testing.T) {
	cc := cache.New(10)
	sc := &fakeSearcher{resp: &models.SearchResponse{
		Success:     true,
		Marketplace: models.MarketplaceTarget,
		Query:       "lamp",
		Products:    []models.Product{{Title: "Lamp", Price: 19.99, URL: "https://t", Marketplace: models.MarketplaceTarget}},
	}}
	body := `{"marketplace":"target","query":"lamp","max_age":60000}`

	// First request: miss, populates the cache.
	w := doJSON(t, Search(sc, cc), http.MethodPost, "/search", body)
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	var first models.SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &first)
	if first.CacheStatus != "miss" {
		t.Errorf("first cache status = %q, want miss", first.CacheStatus)
	}

	// Second request: served from cache, searcher not invoked again.
	// The extraction counter must not move: nothing was extracted.
	extractedBefore := testutil.ToFloat64(metrics.ProductsExtracted.WithLabelValues("target"))
	w = doJSON(t, Search(sc, cc), http.MethodPost, "/search", body)
	var second models.SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if second.CacheStatus != "hit" {
		t.Errorf("second cache status = %q, want hit", second.CacheStatus)
	}
	if sc.calls != 1 {
		t.Errorf("searcher called %d times, want 1", sc.calls)
	}
	if after := testutil.ToFloat64(metrics.ProductsExtracted.WithLabelValues("target")); after != extractedBefore {
		t.Errorf("extracted counter moved %v -> %v on a cache hit", extractedBefore, after)
	}

	// The shared cached entry itself must stay untouched by hits: the
	// handler responds from a copy.
	stored, ok := cc.Get(cache.Key(models.MarketplaceTarget, "lamp", "auto"), 60000)
	if !ok {
		t.Fatal("entry missing from cache after hit")
	}
	if stored.CacheStatus != "miss" {
		t.Errorf("stored entry cache status = %q, want miss (hit must not mutate it)", stored.CacheStatus)
	}
}
