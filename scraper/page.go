package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/shopscout/shopscout/engine"
	"github.com/shopscout/shopscout/models"
	"github.com/ysmood/gson"
)

// FetchRod renders a search page in headless Chrome and returns its HTML.
// It satisfies engine.RodFetchFunc so the dispatcher's browser tiers can
// delegate here.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard          – hard deadline on the entire operation
//  2. Acquire page           – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup         – about:blank + return to pool (leak prevention)
//  4. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  5. Hijack mount           – block CSS/fonts/media/trackers (before navigation!)
//  6. Context binding        – propagate timeout to all Rod operations
//  7. Navigate               – triggers page load
//  8. Wait + scroll          – DOM stable, then scroll to trigger lazy tiles
//  9. Extract                – page.HTML() + final URL
//
// Steps 4-5 MUST happen before step 7: stealth JS and resource blocking only
// take effect for navigations that happen after they are installed.
// Step 3's about:blank uses the ORIGINAL page reference (without request
// context), so cleanup succeeds even if the request context has expired.
func (s *Scraper) FetchRod(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 || timeout > s.searchCfg.MaxTimeout {
		timeout = s.searchCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewSearchError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 4b. Build extra headers (custom + Google Referer) ────────────
	// Arriving from a Google search is the least suspicious entry path
	// into a marketplace search page.
	extraHeaders := make(map[string]string, len(req.Headers)+1)
	if _, hasReferer := req.Headers["Referer"]; !hasReferer {
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		extraHeaders[k] = v
	}
	if len(extraHeaders) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(extraHeaders),
		}.Call(page)
	}

	// ── 4c. Custom cookies ──────────────────────────────────────────
	for _, cookie := range req.Cookies {
		domain := cookie.Domain
		if domain == "" {
			if u, parseErr := url.Parse(req.URL); parseErr == nil {
				domain = u.Host
			}
		}
		path := cookie.Path
		if path == "" {
			path = "/"
		}
		_, _ = proto.NetworkSetCookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: domain,
			Path:   path,
		}.Call(page)
	}

	// ── 5. Mount hijack router (blocks CSS/fonts/media + trackers) ────
	router := setupHijack(page, s.searchCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind request context to page ───────────────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(req.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to search page failed")
	}

	// ── 8. Wait strategy ──────────────────────────────────────────────
	// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
	// HijackRequests on Chromium 145+. WaitDOMStable avoids that.
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 8b. Scroll to trigger lazy-loaded result tiles ───────────────
	// Marketplaces virtualize their result grids; tiles below the fold
	// only materialize once they approach the viewport.
	scrollForLazyResults(p, 3)

	// Give the newly materialized tiles a moment to settle.
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)

	// ── 8c. Collect status code via JS (best-effort) ────────────────
	// performance.getEntriesByType("navigation") exposes the HTTP status
	// without needing CDP event listeners, which conflict with hijacking.
	var statusCode int
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	// ── 9. Extract rendered HTML ─────────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	// The rod-stealth tier overwrites the name when it routed the request.
	return &engine.FetchResult{
		HTML:       rawHTML,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		EngineName: "rod",
	}, nil
}

// scrollForLazyResults scrolls down by full viewports with short pauses so
// lazily rendered result tiles get a chance to mount.
func scrollForLazyResults(p *rod.Page, viewports int) {
	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return
	}
	height := float64(res.Value.Int())

	for i := 0; i < viewports; i++ {
		if err := p.Mouse.Scroll(0, height, 0); err != nil {
			slog.Debug("lazy-load scroll failed", "step", i, "error", err)
			return
		}
		select {
		case <-p.GetContext().Done():
			return
		case <-time.After(150 * time.Millisecond):
		}
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
