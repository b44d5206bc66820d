package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopscout/shopscout/models"
)

func TestKeyDistinguishesInputs(t *testing.T) {
	base := Key(models.MarketplaceAmazon, "usb c cable", "auto")
	if base == Key(models.MarketplaceWalmart, "usb c cable", "auto") {
		t.Error("different marketplaces must produce different keys")
	}
	if base == Key(models.MarketplaceAmazon, "usb a cable", "auto") {
		t.Error("different queries must produce different keys")
	}
	if base == Key(models.MarketplaceAmazon, "usb c cable", "browser") {
		t.Error("different fetch modes must produce different keys")
	}
	if base != Key(models.MarketplaceAmazon, "usb c cable", "auto") {
		t.Error("key must be deterministic")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	c := New(10)
	key := Key(models.MarketplaceTarget, "lamp", "auto")
	resp := &models.SearchResponse{Success: true, Query: "lamp"}

	if _, hit := c.Get(key, 60000); hit {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(key, resp)

	got, hit := c.Get(key, 60000)
	if !hit {
		t.Fatal("expected cache hit")
	}
	if got.Query != "lamp" {
		t.Errorf("got query %q", got.Query)
	}
}

func TestGetRespectsMaxAge(t *testing.T) {
	c := New(10)
	key := Key(models.MarketplaceAmazon, "q", "auto")
	c.Set(key, &models.SearchResponse{Success: true})

	// Backdate the entry past any reasonable maxAge.
	c.mu.Lock()
	c.store[key].createdAt = time.Now().Add(-10 * time.Minute)
	c.mu.Unlock()

	if _, hit := c.Get(key, 1000); hit {
		t.Error("expected miss for entry older than maxAge")
	}
	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge <= 0 must bypass the cache")
	}
}

func TestSetEvictsAtCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Set(Key(models.MarketplaceAmazon, fmt.Sprintf("q%d", i), "auto"), &models.SearchResponse{})
	}

	c.mu.RLock()
	n := len(c.store)
	c.mu.RUnlock()
	if n > 3 {
		t.Errorf("cache holds %d entries, capacity is 3", n)
	}
}
