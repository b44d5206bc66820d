// Package watch re-runs saved price comparisons on a schedule and fires
// webhook events when a watched item's best price drops.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopscout/shopscout/metrics"
	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
	"github.com/shopscout/shopscout/webhook"
)

// Comparer runs a cross-marketplace comparison. *scraper.Scraper satisfies it.
type Comparer interface {
	Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error)
}

// runTimeout bounds a single watch execution across all its marketplaces.
const runTimeout = 3 * time.Minute

// Runner owns the cron schedule and executes all persisted watches.
type Runner struct {
	store    store.Store
	comparer Comparer
	cron     *cron.Cron
	schedule string
}

// NewRunner creates a Runner that executes every stored watch on the given
// cron schedule (standard 5-field cron expression).
func NewRunner(st store.Store, c Comparer, schedule string) *Runner {
	return &Runner{
		store:    st,
		comparer: c,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the schedule and launches the cron loop.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.RunAll); err != nil {
		return fmt.Errorf("watch: invalid schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	slog.Info("watch runner started", "schedule", r.schedule)
	return nil
}

// Stop halts the cron loop and waits for any in-flight run to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("watch runner stopped")
}

// RunAll executes every stored watch sequentially. Sequential execution
// keeps the browser pool pressure bounded; each watch already fans out
// across its marketplaces internally.
func (r *Runner) RunAll() {
	ctx := context.Background()
	watches, err := r.store.Watches(ctx)
	if err != nil {
		slog.Error("watch run: failed to load watches", "error", err)
		return
	}

	slog.Info("watch run starting", "watches", len(watches))
	for _, w := range watches {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		if err := r.RunOne(runCtx, w); err != nil {
			slog.Error("watch run failed", "watch_id", w.ID, "query", w.Query, "error", err)
			metrics.WatchRunsTotal.WithLabelValues("error").Inc()
			if w.WebhookURL != "" {
				webhook.DeliverAsync(w.WebhookURL, w.WebhookSecret, &webhook.Event{
					Type:      "watch.failed",
					WatchID:   w.ID,
					Timestamp: time.Now().Unix(),
					Data:      map[string]string{"error": err.Error()},
				})
			}
		} else {
			metrics.WatchRunsTotal.WithLabelValues("ok").Inc()
		}
		cancel()
	}
}

// RunOne executes a single watch: run the comparison, persist snapshots,
// detect a price drop against the previous run, and update the watch state.
func (r *Runner) RunOne(ctx context.Context, w *models.Watch) error {
	req := &models.CompareRequest{
		Query:          w.Query,
		ReferenceTitle: w.ReferenceTitle,
		Marketplaces:   w.Marketplaces,
		MinSimilarity:  &w.MinSimilarity,
	}

	resp, err := r.comparer.Compare(ctx, req)
	if err != nil {
		return fmt.Errorf("watch %s: compare: %w", w.ID, err)
	}

	for i := range resp.Offers {
		o := &resp.Offers[i]
		snap := &store.Snapshot{
			ID:          uuid.NewString(),
			Marketplace: o.Marketplace,
			Query:       w.Query,
			ItemID:      o.ItemID,
			Title:       o.Title,
			Price:       o.Price,
			URL:         o.URL,
			Similarity:  o.Similarity,
			CreatedAt:   time.Now().UTC(),
		}
		if err := r.store.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("watch: snapshot not persisted", "watch_id", w.ID, "error", err)
		}
	}

	previous := w.LastBestOffer
	now := time.Now().UTC()
	w.LastRunAt = &now
	w.LastBestOffer = resp.BestOffer

	if err := r.store.SaveWatch(ctx, w); err != nil {
		return fmt.Errorf("watch %s: save state: %w", w.ID, err)
	}

	if resp.BestOffer != nil && previous != nil && resp.BestOffer.Price < previous.Price {
		slog.Info("watch detected price drop",
			"watch_id", w.ID,
			"query", w.Query,
			"previous", previous.Price,
			"current", resp.BestOffer.Price,
		)
		if w.WebhookURL != "" {
			webhook.DeliverAsync(w.WebhookURL, w.WebhookSecret, &webhook.Event{
				Type:      "watch.price_drop",
				WatchID:   w.ID,
				Timestamp: now.Unix(),
				Data: map[string]any{
					"query":          w.Query,
					"previous_offer": previous,
					"best_offer":     resp.BestOffer,
				},
			})
		}
	}
	return nil
}
