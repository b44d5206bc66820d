package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopscout/shopscout/models"
	_ "modernc.org/sqlite"
)

// ensure sqliteStore implements Store
var _ Store = (*sqliteStore)(nil)

type sqliteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS price_snapshots (
	id TEXT PRIMARY KEY,
	marketplace TEXT NOT NULL,
	query TEXT NOT NULL,
	item_id TEXT,
	title TEXT NOT NULL,
	price REAL NOT NULL,
	url TEXT NOT NULL,
	similarity REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_query ON price_snapshots (marketplace, query, created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_item ON price_snapshots (marketplace, item_id, created_at);

CREATE TABLE IF NOT EXISTS watches (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	reference_title TEXT NOT NULL,
	marketplaces TEXT NOT NULL,
	min_similarity REAL NOT NULL,
	webhook_url TEXT,
	webhook_secret TEXT,
	created_at DATETIME NOT NULL,
	last_run_at DATETIME,
	last_best_offer TEXT
);
`

// NewSQLite opens (or creates) a SQLite-backed Store at the given DSN.
func NewSQLite(dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	query := `
	INSERT INTO price_snapshots (
		id, marketplace, query, item_id, title, price, url, similarity, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		snap.ID,
		string(snap.Marketplace),
		snap.Query,
		snap.ItemID,
		snap.Title,
		snap.Price,
		snap.URL,
		snap.Similarity,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *sqliteStore) Snapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error) {
	query := `SELECT id, marketplace, query, item_id, title, price, url, similarity, created_at FROM price_snapshots WHERE 1=1`
	args := []any{}

	if filter.Marketplace != "" {
		query += ` AND marketplace = ?`
		args = append(args, string(filter.Marketplace))
	}
	if filter.Query != "" {
		query += ` AND query = ?`
		args = append(args, filter.Query)
	}
	if filter.ItemID != "" {
		query += ` AND item_id = ?`
		args = append(args, filter.ItemID)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query snapshots: %w", err)
	}
	defer rows.Close()

	var results []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var marketplace string
		if err := rows.Scan(
			&snap.ID, &marketplace, &snap.Query, &snap.ItemID, &snap.Title,
			&snap.Price, &snap.URL, &snap.Similarity, &snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.Marketplace = models.Marketplace(marketplace)
		results = append(results, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate snapshots: %w", err)
	}
	return results, nil
}

func (s *sqliteStore) SaveWatch(ctx context.Context, w *models.Watch) error {
	marketplaces, err := json.Marshal(w.Marketplaces)
	if err != nil {
		return fmt.Errorf("store: marshal marketplaces: %w", err)
	}
	var lastBest []byte
	if w.LastBestOffer != nil {
		lastBest, err = json.Marshal(w.LastBestOffer)
		if err != nil {
			return fmt.Errorf("store: marshal last best offer: %w", err)
		}
	}

	query := `
	INSERT INTO watches (
		id, query, reference_title, marketplaces, min_similarity,
		webhook_url, webhook_secret, created_at, last_run_at, last_best_offer
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		query = excluded.query,
		reference_title = excluded.reference_title,
		marketplaces = excluded.marketplaces,
		min_similarity = excluded.min_similarity,
		webhook_url = excluded.webhook_url,
		webhook_secret = excluded.webhook_secret,
		last_run_at = excluded.last_run_at,
		last_best_offer = excluded.last_best_offer
	`
	_, err = s.db.ExecContext(ctx, query,
		w.ID,
		w.Query,
		w.ReferenceTitle,
		string(marketplaces),
		w.MinSimilarity,
		w.WebhookURL,
		w.WebhookSecret,
		w.CreatedAt,
		w.LastRunAt,
		nullableString(lastBest),
	)
	if err != nil {
		return fmt.Errorf("store: save watch: %w", err)
	}
	return nil
}

func (s *sqliteStore) Watch(ctx context.Context, id string) (*models.Watch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, reference_title, marketplaces, min_similarity,
		        webhook_url, webhook_secret, created_at, last_run_at, last_best_offer
		 FROM watches WHERE id = ?`, id)
	w, err := scanWatch(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load watch: %w", err)
	}
	return w, nil
}

func (s *sqliteStore) Watches(ctx context.Context) ([]*models.Watch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, reference_title, marketplaces, min_similarity,
		        webhook_url, webhook_secret, created_at, last_run_at, last_best_offer
		 FROM watches ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("store: query watches: %w", err)
	}
	defer rows.Close()

	var watches []*models.Watch
	for rows.Next() {
		w, err := scanWatch(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan watch: %w", err)
		}
		watches = append(watches, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate watches: %w", err)
	}
	return watches, nil
}

func (s *sqliteStore) DeleteWatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete watch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanWatch(row scanner) (*models.Watch, error) {
	var w models.Watch
	var marketplaces string
	var webhookURL, webhookSecret, lastBest sql.NullString
	var lastRunAt sql.NullTime

	if err := row.Scan(
		&w.ID, &w.Query, &w.ReferenceTitle, &marketplaces, &w.MinSimilarity,
		&webhookURL, &webhookSecret, &w.CreatedAt, &lastRunAt, &lastBest,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(marketplaces), &w.Marketplaces); err != nil {
		return nil, err
	}
	w.WebhookURL = webhookURL.String
	w.WebhookSecret = webhookSecret.String
	if lastRunAt.Valid {
		t := lastRunAt.Time
		w.LastRunAt = &t
	}
	if lastBest.Valid && lastBest.String != "" {
		var offer models.Offer
		if err := json.Unmarshal([]byte(lastBest.String), &offer); err != nil {
			return nil, err
		}
		w.LastBestOffer = &offer
	}
	return &w, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
