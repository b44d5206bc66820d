package scraper

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopscout/shopscout/extract"
	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/simhash"
	"golang.org/x/sync/errgroup"
)

// Compare searches every requested marketplace concurrently, scores each
// extracted listing against the reference title, and returns the offers
// ranked best-first.
//
// A marketplace whose fetch fails is reported in Errors; the comparison
// still succeeds with whatever the other marketplaces returned.
func (s *Scraper) Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	start := time.Now()
	req.Defaults()

	var (
		mu       sync.Mutex
		products []models.Product
		failures = make(map[models.Marketplace]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range req.Marketplaces {
		m := models.Marketplace(name)
		g.Go(func() error {
			sr := &models.SearchRequest{
				Marketplace: string(m),
				Query:       req.Query,
				Timeout:     req.Timeout,
				Stealth:     req.Stealth,
			}
			sr.Defaults()

			resp, err := s.Search(gctx, sr)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[m] = shortError(err)
				// A single marketplace failing must not cancel the rest.
				return nil
			}
			products = append(products, resp.Products...)
			return nil
		})
	}
	_ = g.Wait()

	offers := RankOffers(products, req.ReferenceTitle, *req.MinSimilarity, req.MaxResults)

	resp := &models.CompareResponse{
		Success:        true,
		Query:          req.Query,
		ReferenceTitle: req.ReferenceTitle,
		Offers:         offers,
		Timing:         models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	}
	if len(offers) > 0 {
		resp.BestOffer = &offers[0]
	}
	if len(failures) > 0 {
		resp.Errors = failures
	}
	return resp, nil
}

// dedupeDistance is the maximum SimHash Hamming distance at which two
// titles from the same marketplace are treated as the same listing.
const dedupeDistance = 3

// RankOffers scores products against the reference title, drops those below
// minSimilarity, and sorts the rest by similarity descending with ascending
// price as the tiebreaker. Near-duplicate listings from the same marketplace
// (sponsored repeats of an organic result) are collapsed onto the
// better-ranked one. At most maxResults offers are returned.
func RankOffers(products []models.Product, referenceTitle string, minSimilarity float64, maxResults int) []models.Offer {
	offers := make([]models.Offer, 0, len(products))
	for _, p := range products {
		score := extract.Similarity(referenceTitle, p.Title)
		if score < minSimilarity {
			continue
		}
		offers = append(offers, models.Offer{Product: p, Similarity: score})
	}

	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Similarity != offers[j].Similarity {
			return offers[i].Similarity > offers[j].Similarity
		}
		return offers[i].Price < offers[j].Price
	})

	offers = dedupeOffers(offers)

	if maxResults > 0 && len(offers) > maxResults {
		offers = offers[:maxResults]
	}
	return offers
}

// dedupeOffers drops offers whose title fingerprint nearly matches an
// already-kept offer from the same marketplace. Offers must be sorted
// best-first so the kept one is the better-ranked of each pair.
func dedupeOffers(offers []models.Offer) []models.Offer {
	type seen struct {
		marketplace models.Marketplace
		fp          uint64
	}

	kept := offers[:0]
	fps := make([]seen, 0, len(offers))
	for _, o := range offers {
		fp := simhash.Fingerprint(o.Title)
		dup := false
		for _, s := range fps {
			if s.marketplace == o.Marketplace && simhash.Similar(s.fp, fp, dedupeDistance) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		fps = append(fps, seen{marketplace: o.Marketplace, fp: fp})
		kept = append(kept, o)
	}
	return kept
}

// shortError extracts a compact, user-facing message from a fetch error.
func shortError(err error) string {
	var se *models.SearchError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
