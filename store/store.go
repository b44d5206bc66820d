package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopscout/shopscout/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Snapshot is one observed price point for a listing. Searches and
// comparisons record snapshots so price history accumulates over time.
type Snapshot struct {
	ID          string             `json:"id"`
	Marketplace models.Marketplace `json:"marketplace"`
	Query       string             `json:"query"`
	ItemID      string             `json:"item_id,omitempty"`
	Title       string             `json:"title"`
	Price       float64            `json:"price"`
	URL         string             `json:"url"`
	Similarity  float64            `json:"similarity,omitempty"` // 0 for plain searches
	CreatedAt   time.Time          `json:"created_at"`
}

// SnapshotFilter narrows a snapshot query. Zero-valued fields are ignored.
type SnapshotFilter struct {
	Marketplace models.Marketplace
	Query       string
	ItemID      string
	Since       *time.Time
	Limit       int
	Offset      int
}

// Store persists price snapshots and watch definitions.
type Store interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
	Snapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error)

	SaveWatch(ctx context.Context, w *models.Watch) error
	Watch(ctx context.Context, id string) (*models.Watch, error)
	Watches(ctx context.Context) ([]*models.Watch, error)
	DeleteWatch(ctx context.Context, id string) error

	Close() error
}
