package watch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
	"github.com/shopscout/shopscout/webhook"
)

type fakeComparer struct {
	resp *models.CompareResponse
	err  error
}

func (f *fakeComparer) Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	return f.resp, f.err
}

func newWatchStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func offer(price float64) *models.Offer {
	return &models.Offer{
		Product: models.Product{
			Title:       "Cordless Drill",
			Price:       price,
			URL:         "https://www.homedepot.com/p/drill/1001",
			ItemID:      "1001",
			Marketplace: models.MarketplaceHomeDepot,
		},
		Similarity: 0.9,
	}
}

func TestRunOneRecordsStateAndSnapshots(t *testing.T) {
	st := newWatchStore(t)
	best := offer(89.99)
	comparer := &fakeComparer{resp: &models.CompareResponse{
		Success:   true,
		Offers:    []models.Offer{*best},
		BestOffer: best,
	}}
	r := NewRunner(st, comparer, "@hourly")

	w := &models.Watch{
		ID:            "w1",
		Query:         "cordless drill",
		Marketplaces:  []string{"homedepot"},
		MinSimilarity: 0.3,
		CreatedAt:     time.Now().UTC(),
	}
	if err := st.SaveWatch(context.Background(), w); err != nil {
		t.Fatalf("SaveWatch: %v", err)
	}

	if err := r.RunOne(context.Background(), w); err != nil {
		t.Fatalf("RunOne: %v", err)
	}

	stored, err := st.Watch(context.Background(), "w1")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if stored.LastRunAt == nil {
		t.Error("LastRunAt not set")
	}
	if stored.LastBestOffer == nil || stored.LastBestOffer.Price != 89.99 {
		t.Errorf("LastBestOffer = %+v", stored.LastBestOffer)
	}

	snaps, err := st.Snapshots(context.Background(), store.SnapshotFilter{Query: "cordless drill"})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snaps))
	}
}

func TestRunOneFiresPriceDropWebhook(t *testing.T) {
	delivered := make(chan *webhook.Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		var ev webhook.Event
		_ = json.Unmarshal(body, &ev)
		delivered <- &ev
	}))
	defer srv.Close()

	st := newWatchStore(t)
	best := offer(79.99)
	comparer := &fakeComparer{resp: &models.CompareResponse{
		Success:   true,
		Offers:    []models.Offer{*best},
		BestOffer: best,
	}}
	r := NewRunner(st, comparer, "@hourly")

	w := &models.Watch{
		ID:            "w2",
		Query:         "cordless drill",
		Marketplaces:  []string{"homedepot"},
		MinSimilarity: 0.3,
		WebhookURL:    srv.URL,
		CreatedAt:     time.Now().UTC(),
		LastBestOffer: offer(99.99), // previous run was more expensive
	}
	if err := st.SaveWatch(context.Background(), w); err != nil {
		t.Fatalf("SaveWatch: %v", err)
	}

	if err := r.RunOne(context.Background(), w); err != nil {
		t.Fatalf("RunOne: %v", err)
	}

	select {
	case ev := <-delivered:
		if ev.Type != "watch.price_drop" {
			t.Errorf("event type = %q", ev.Type)
		}
		if ev.WatchID != "w2" {
			t.Errorf("watch id = %q", ev.WatchID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

func TestRunOneNoWebhookWithoutDrop(t *testing.T) {
	delivered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		delivered <- struct{}{}
	}))
	defer srv.Close()

	st := newWatchStore(t)
	best := offer(99.99)
	comparer := &fakeComparer{resp: &models.CompareResponse{
		Success:   true,
		Offers:    []models.Offer{*best},
		BestOffer: best,
	}}
	r := NewRunner(st, comparer, "@hourly")

	w := &models.Watch{
		ID:            "w3",
		Query:         "cordless drill",
		Marketplaces:  []string{"homedepot"},
		MinSimilarity: 0.3,
		WebhookURL:    srv.URL,
		CreatedAt:     time.Now().UTC(),
		LastBestOffer: offer(89.99), // price went UP
	}
	if err := st.SaveWatch(context.Background(), w); err != nil {
		t.Fatalf("SaveWatch: %v", err)
	}
	if err := r.RunOne(context.Background(), w); err != nil {
		t.Fatalf("RunOne: %v", err)
	}

	select {
	case <-delivered:
		t.Fatal("webhook fired without a price drop")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewRunnerBadSchedule(t *testing.T) {
	st := newWatchStore(t)
	r := NewRunner(st, &fakeComparer{}, "not a cron expression")
	if err := r.Start(); err == nil {
		r.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}
