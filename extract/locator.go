// Package extract turns rendered marketplace search-result pages into
// structured product records.
//
// The package is pure: it operates on an already-parsed document and does no
// I/O. Every public operation degrades to an empty result instead of
// returning an error — search pages are third-party markup the service does
// not control, so discovery and field parsing are strictly best-effort.
// Failure causes are visible only on the log side channel.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopscout/shopscout/models"
)

// Extractor locates and extracts product listings for one marketplace.
// It is stateless and safe for concurrent use.
type Extractor struct {
	profile *profile
}

// New returns the Extractor for the given marketplace.
func New(m models.Marketplace) (*Extractor, error) {
	p, ok := profiles[m]
	if !ok {
		return nil, fmt.Errorf("extract: no profile for marketplace %q", m)
	}
	return &Extractor{profile: p}, nil
}

// Marketplace reports which marketplace this extractor targets.
func (e *Extractor) Marketplace() models.Marketplace {
	return e.profile.marketplace
}

// Locate scans the document for elements representing individual search
// results. Strategies are tried in priority order and the first one yielding
// at least one match wins; results from different strategies are never merged
// because mixing markup generations produces duplicate or malformed entries.
//
// Returns nil when no strategy matches. Any internal fault is recovered and
// logged; discovery is best-effort and never propagates an error.
func (e *Extractor) Locate(doc *goquery.Document) (results []*goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("result discovery panicked",
				"marketplace", e.profile.marketplace, "panic", r)
			results = nil
		}
	}()

	for _, s := range e.profile.results {
		matched := doc.FindMatcher(s.sel)
		if matched.Length() == 0 {
			continue
		}
		slog.Debug("result strategy matched",
			"marketplace", e.profile.marketplace,
			"strategy", s.name,
			"count", matched.Length(),
		)
		matched.Each(func(_ int, sel *goquery.Selection) {
			results = append(results, sel)
		})
		return results
	}

	slog.Info("no result strategy matched",
		"marketplace", e.profile.marketplace)
	return nil
}
