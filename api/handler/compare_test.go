package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
)

type fakeComparer struct {
	resp *models.CompareResponse
	err  error
	got  *models.CompareRequest
}

func (f *fakeComparer) Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestCompareHandlerOK(t *testing.T) {
	st := newHandlerStore(t)
	best := models.Offer{
		Product: models.Product{
			Title:       "Ninja Air Fryer 4qt",
			Price:       79.99,
			URL:         "https://www.walmart.com/ip/ninja/555",
			ItemID:      "555",
			Marketplace: models.MarketplaceWalmart,
		},
		Similarity: 0.85,
	}
	sc := &fakeComparer{resp: &models.CompareResponse{
		Success:   true,
		Query:     "ninja air fryer",
		Offers:    []models.Offer{best},
		BestOffer: &best,
	}}

	w := doJSON(t, Compare(sc, st), http.MethodPost, "/compare",
		`{"query":"ninja air fryer"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.CompareResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.BestOffer == nil || resp.BestOffer.Price != 79.99 {
		t.Errorf("best offer = %+v", resp.BestOffer)
	}

	// Defaults applied before the comparison ran.
	if sc.got.ReferenceTitle != "ninja air fryer" {
		t.Errorf("reference title = %q", sc.got.ReferenceTitle)
	}
	if len(sc.got.Marketplaces) != 4 {
		t.Errorf("marketplaces = %v, want all four", sc.got.Marketplaces)
	}

	// Offers were persisted as snapshots.
	deadline := time.Now().Add(2 * time.Second)
	for {
		snaps, err := st.Snapshots(context.Background(), store.SnapshotFilter{Query: "ninja air fryer"})
		if err != nil {
			t.Fatalf("Snapshots: %v", err)
		}
		if len(snaps) == 1 {
			if snaps[0].ItemID != "555" || snaps[0].Similarity != 0.85 {
				t.Errorf("snapshot = %+v", snaps[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never persisted, got %d", len(snaps))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// failFirstStore rejects the first snapshot save and delegates the rest.
type failFirstStore struct {
	store.Store
	failed bool
}

func (f *failFirstStore) SaveSnapshot(ctx context.Context, s *store.Snapshot) error {
	if !f.failed {
		f.failed = true
		return errors.New("disk full")
	}
	return f.Store.SaveSnapshot(ctx, s)
}

func TestRecordOffersSurvivesSaveFailure(t *testing.T) {
	st := &failFirstStore{Store: newHandlerStore(t)}
	offers := []models.Offer{
		{Product: models.Product{Title: "Widget A", Price: 10, URL: "u1", Marketplace: models.MarketplaceAmazon}, Similarity: 0.9},
		{Product: models.Product{Title: "Widget B", Price: 11, URL: "u2", Marketplace: models.MarketplaceWalmart}, Similarity: 0.8},
		{Product: models.Product{Title: "Widget C", Price: 12, URL: "u3", Marketplace: models.MarketplaceTarget}, Similarity: 0.7},
	}

	recordOffers(context.Background(), st, "flaky store widget", offers)

	snaps, err := st.Snapshots(context.Background(), store.SnapshotFilter{Query: "flaky store widget"})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	// One save failed; the other offers must still be persisted.
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
}

func TestCompareHandlerValidation(t *testing.T) {
	sc := &fakeComparer{}
	for _, body := range []string{
		`{}`,
		`{"query":"x","marketplaces":["ebay"]}`,
		`{"query":"x","min_similarity":1.5}`,
		`{"query":"x","webhook_url":"not-a-url"}`,
	} {
		w := doJSON(t, Compare(sc, nil), http.MethodPost, "/compare", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCompareHandlerError(t *testing.T) {
	sc := &fakeComparer{err: models.NewSearchError(models.ErrCodeTimeout, "all marketplaces timed out", nil)}
	w := doJSON(t, Compare(sc, nil), http.MethodPost, "/compare", `{"query":"tv"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}
