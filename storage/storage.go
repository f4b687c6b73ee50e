// Package storage provides SQLite-backed persistence for batch snapshots,
// the notified-story seen set, and scheduler run history.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"trendwatch/model"
	"trendwatch/novelty"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS batches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mode TEXT,
	captured_at INTEGER
);

CREATE TABLE IF NOT EXISTS items (
	batch_id INTEGER,
	platform TEXT,
	title TEXT,
	url TEXT,
	mobile_url TEXT,
	rank INTEGER,
	captured_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch_id);

CREATE TABLE IF NOT EXISTS seen (
	title TEXT,
	url TEXT,
	platform TEXT,
	first_notified_at INTEGER,
	last_seen_at INTEGER,
	PRIMARY KEY (title, url)
);

CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mode TEXT,
	started_at INTEGER,
	finished_at INTEGER,
	status TEXT,
	detail TEXT
);
`

// New opens the SQLite database at dbPath, creates tables if they don't
// exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// WAL keeps reads cheap while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch persists one fetch cycle's items as a new batch and returns the
// batch id. The whole batch is written in a single transaction.
func (s *Store) SaveBatch(mode model.Mode, capturedAt time.Time, items []model.RawItem) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: begin batch: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO batches (mode, captured_at) VALUES (?, ?)`,
		string(mode), capturedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: insert batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: batch id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO items (batch_id, platform, title, url, mobile_url, rank, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(
			batchID, item.PlatformID, item.Title, item.URL, item.MobileURL,
			item.Rank, item.CapturedAt.Unix(),
		); err != nil {
			return 0, fmt.Errorf("storage: insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: commit batch: %w", err)
	}
	return batchID, nil
}

// ItemsSince returns every item captured in batches at or after since, in
// batch order then insertion order.
func (s *Store) ItemsSince(since time.Time) ([]model.RawItem, error) {
	rows, err := s.db.Query(
		`SELECT i.platform, i.title, i.url, i.mobile_url, i.rank, i.captured_at
		 FROM items i JOIN batches b ON i.batch_id = b.id
		 WHERE b.captured_at >= ?
		 ORDER BY i.batch_id, i.rowid`, since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: items since: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// LatestBatchItems returns the items of the most recent batch, or an empty
// slice when no batch exists yet.
func (s *Store) LatestBatchItems() ([]model.RawItem, error) {
	rows, err := s.db.Query(
		`SELECT platform, title, url, mobile_url, rank, captured_at
		 FROM items
		 WHERE batch_id = (SELECT MAX(id) FROM batches)
		 ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: latest batch items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.RawItem, error) {
	var items []model.RawItem
	for rows.Next() {
		var it model.RawItem
		var capturedAt int64
		if err := rows.Scan(&it.PlatformID, &it.Title, &it.URL, &it.MobileURL, &it.Rank, &capturedAt); err != nil {
			return nil, fmt.Errorf("storage: scan item: %w", err)
		}
		it.CapturedAt = time.Unix(capturedAt, 0).UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate items: %w", err)
	}
	return items, nil
}

// BatchCountSince counts the batches captured at or after since.
func (s *Store) BatchCountSince(since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM batches WHERE captured_at >= ?`, since.Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: batch count: %w", err)
	}
	return count, nil
}

// LoadSeen evicts seen entries not re-sighted within retention and returns
// the remaining set keyed by story identity, valued by first-notified time.
func (s *Store) LoadSeen(retention time.Duration, now time.Time) (novelty.Seen, error) {
	cutoff := now.Add(-retention).Unix()
	if _, err := s.db.Exec(`DELETE FROM seen WHERE last_seen_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("storage: evict seen: %w", err)
	}

	rows, err := s.db.Query(`SELECT title, url, first_notified_at FROM seen`)
	if err != nil {
		return nil, fmt.Errorf("storage: load seen: %w", err)
	}
	defer rows.Close()

	seen := make(novelty.Seen)
	for rows.Next() {
		var id model.Identity
		var first int64
		if err := rows.Scan(&id.Title, &id.URL, &first); err != nil {
			return nil, fmt.Errorf("storage: scan seen: %w", err)
		}
		seen[id] = time.Unix(first, 0).UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate seen: %w", err)
	}
	return seen, nil
}

// SeenEntry is one notified story identity to persist.
type SeenEntry struct {
	Identity model.Identity
	Platform string
}

// MarkSeen upserts the given identities: new stories are recorded with now
// as their first-notified time, re-sighted ones only bump last_seen_at. The
// write is transactional so an interrupted run never leaves a partial seen
// state behind.
func (s *Store) MarkSeen(entries []SeenEntry, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin mark seen: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO seen (title, url, platform, first_notified_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(title, url) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
	)
	if err != nil {
		return fmt.Errorf("storage: prepare mark seen: %w", err)
	}
	defer stmt.Close()

	ts := now.Unix()
	for _, e := range entries {
		if _, err := stmt.Exec(e.Identity.Title, e.Identity.URL, e.Platform, ts, ts); err != nil {
			return fmt.Errorf("storage: mark seen %q: %w", e.Identity.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit mark seen: %w", err)
	}
	return nil
}

// RunRecord is one scheduler execution entry.
type RunRecord struct {
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Detail     string
}

// RecordRun appends one execution record to the run history.
func (s *Store) RecordRun(rec RunRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (mode, started_at, finished_at, status, detail) VALUES (?, ?, ?, ?, ?)`,
		rec.Mode, rec.StartedAt.Unix(), rec.FinishedAt.Unix(), rec.Status, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("storage: record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit execution records, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT mode, started_at, finished_at, status, detail
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished int64
		if err := rows.Scan(&rec.Mode, &started, &finished, &rec.Status, &rec.Detail); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0).UTC()
		rec.FinishedAt = time.Unix(finished, 0).UTC()
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate runs: %w", err)
	}
	return recs, nil
}
