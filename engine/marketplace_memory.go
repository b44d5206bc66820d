package engine

import (
	"sync"
	"time"

	"github.com/shopscout/shopscout/models"
)

// memoryEntry stores the preferred engine for a marketplace with a TTL.
type memoryEntry struct {
	engineName string
	expiresAt  time.Time
}

// MarketplaceMemory remembers which engine last got through each
// marketplace's bot defenses. Retail sites rotate their challenges, so
// entries expire after the configured TTL and are pruned periodically.
type MarketplaceMemory struct {
	store sync.Map // models.Marketplace -> *memoryEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewMarketplaceMemory creates a MarketplaceMemory with the given TTL and
// starts a background goroutine that prunes expired entries every hour.
func NewMarketplaceMemory(ttl time.Duration) *MarketplaceMemory {
	mm := &MarketplaceMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go mm.cleanupLoop()
	return mm
}

// Get returns the remembered engine name for a marketplace, or "" if not
// found or expired.
func (mm *MarketplaceMemory) Get(m models.Marketplace) string {
	val, ok := mm.store.Load(m)
	if !ok {
		return ""
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		mm.store.Delete(m)
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a marketplace.
func (mm *MarketplaceMemory) Set(m models.Marketplace, engineName string) {
	mm.store.Store(m, &memoryEntry{
		engineName: engineName,
		expiresAt:  time.Now().Add(mm.ttl),
	})
}

// Delete removes the memory for a marketplace (e.g. after the remembered
// engine starts getting challenged).
func (mm *MarketplaceMemory) Delete(m models.Marketplace) {
	mm.store.Delete(m)
}

// Stop terminates the background cleanup goroutine.
func (mm *MarketplaceMemory) Stop() {
	close(mm.done)
}

// cleanupLoop runs every hour, deleting expired entries.
func (mm *MarketplaceMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-mm.done:
			return
		case <-ticker.C:
			now := time.Now()
			mm.store.Range(func(key, value any) bool {
				entry := value.(*memoryEntry)
				if now.After(entry.expiresAt) {
					mm.store.Delete(key)
				}
				return true
			})
		}
	}
}
