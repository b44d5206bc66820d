package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopscout/shopscout/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	snap := &Snapshot{
		ID:          "snap-1",
		Marketplace: models.MarketplaceWalmart,
		Query:       "coffee maker",
		ItemID:      "123456",
		Title:       "12-Cup Coffee Maker",
		Price:       34.99,
		URL:         "https://www.walmart.com/ip/coffee/123456",
		Similarity:  0.8,
		CreatedAt:   now,
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := s.Snapshots(ctx, SnapshotFilter{Marketplace: models.MarketplaceWalmart, Query: "coffee maker"})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(got))
	}
	if got[0].Price != 34.99 || got[0].ItemID != "123456" {
		t.Errorf("snapshot = %+v", got[0])
	}
}

func TestSnapshotFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, m := range []models.Marketplace{models.MarketplaceAmazon, models.MarketplaceAmazon, models.MarketplaceTarget} {
		snap := &Snapshot{
			ID:          "s-" + string(rune('a'+i)),
			Marketplace: m,
			Query:       "lamp",
			Title:       "Desk Lamp",
			Price:       float64(10 + i),
			URL:         "https://example.com",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	amazonOnly, err := s.Snapshots(ctx, SnapshotFilter{Marketplace: models.MarketplaceAmazon})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(amazonOnly) != 2 {
		t.Errorf("amazon filter: got %d, want 2", len(amazonOnly))
	}

	limited, err := s.Snapshots(ctx, SnapshotFilter{Query: "lamp", Limit: 1})
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1: got %d", len(limited))
	}
	// Newest first.
	if limited[0].Price != 12 {
		t.Errorf("newest snapshot price = %v, want 12", limited[0].Price)
	}
}

func TestWatchCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w := &models.Watch{
		ID:             "watch-1",
		Query:          "standing desk",
		ReferenceTitle: "Electric Standing Desk 48 inch",
		Marketplaces:   []string{"amazon", "walmart"},
		MinSimilarity:  0.4,
		WebhookURL:     "https://hooks.example.com/desk",
		WebhookSecret:  "shh",
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.SaveWatch(ctx, w); err != nil {
		t.Fatalf("SaveWatch: %v", err)
	}

	got, err := s.Watch(ctx, "watch-1")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if got.Query != w.Query || got.WebhookSecret != "shh" || len(got.Marketplaces) != 2 {
		t.Errorf("watch = %+v", got)
	}
	if got.LastRunAt != nil || got.LastBestOffer != nil {
		t.Error("fresh watch should have no run state")
	}

	// Update run state via upsert.
	now := time.Now().UTC()
	got.LastRunAt = &now
	got.LastBestOffer = &models.Offer{
		Product:    models.Product{Title: "Desk", Price: 199.99, URL: "https://x", Marketplace: models.MarketplaceAmazon},
		Similarity: 0.9,
	}
	if err := s.SaveWatch(ctx, got); err != nil {
		t.Fatalf("SaveWatch (update): %v", err)
	}
	updated, err := s.Watch(ctx, "watch-1")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if updated.LastRunAt == nil || updated.LastBestOffer == nil {
		t.Fatal("run state not persisted")
	}
	if updated.LastBestOffer.Price != 199.99 {
		t.Errorf("last best offer price = %v", updated.LastBestOffer.Price)
	}

	all, err := s.Watches(ctx)
	if err != nil {
		t.Fatalf("Watches: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d watches, want 1", len(all))
	}

	if err := s.DeleteWatch(ctx, "watch-1"); err != nil {
		t.Fatalf("DeleteWatch: %v", err)
	}
	if _, err := s.Watch(ctx, "watch-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWatch(ctx, "watch-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}
