// Package history records the outfits a user wore or planned, and serves the
// rolling window the repeat checker compares against.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/closetkit/closet/pkg/models"
)

// DefaultWindowDays is the history window passed to the repeat checker.
const DefaultWindowDays = 30

const dateLayout = "2006-01-02"

// Store records and queries outfit history.
type Store interface {
	// Record appends a history record, assigning its ID and CreatedAt.
	Record(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error)
	// Since returns records dated on or after since, newest first.
	Since(ctx context.Context, since time.Time) ([]models.HistoryRecord, error)
	// Window returns records from the last days calendar days before now, newest first.
	Window(ctx context.Context, now time.Time, days int) ([]models.HistoryRecord, error)
	// Prune deletes records dated before the given time and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const createTable = `
CREATE TABLE IF NOT EXISTS outfit_history (
	id TEXT PRIMARY KEY,
	worn_on TEXT NOT NULL,
	item_ids TEXT NOT NULL,
	event_id TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_worn_on ON outfit_history(worn_on);
`

// New creates a SQLiteStore and runs auto-migration.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record stores rec. Only the calendar date of rec.Date is kept.
func (s *SQLiteStore) Record(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error) {
	if rec.Date.IsZero() {
		return models.HistoryRecord{}, fmt.Errorf("record history: date is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	rec.Date = dateOf(rec.Date)
	if rec.ItemIDs == nil {
		rec.ItemIDs = []string{}
	}

	items, err := json.Marshal(rec.ItemIDs)
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("encode item ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outfit_history (id, worn_on, item_ids, event_id, event_type, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date.Format(dateLayout), string(items), rec.EventID, rec.EventType, rec.Location, rec.CreatedAt,
	)
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("record history: %w", err)
	}
	return rec, nil
}

// Since returns records dated on or after the calendar date of since.
func (s *SQLiteStore) Since(ctx context.Context, since time.Time) ([]models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, worn_on, item_ids, event_id, event_type, location, created_at
		 FROM outfit_history WHERE worn_on >= ? ORDER BY worn_on DESC, created_at DESC`,
		dateOf(since).Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var (
			r      models.HistoryRecord
			wornOn string
			items  string
		)
		if err := rows.Scan(&r.ID, &wornOn, &items, &r.EventID, &r.EventType, &r.Location, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if r.Date, err = time.Parse(dateLayout, wornOn); err != nil {
			return nil, fmt.Errorf("parse worn_on %q: %w", wornOn, err)
		}
		if err := json.Unmarshal([]byte(items), &r.ItemIDs); err != nil {
			return nil, fmt.Errorf("decode item ids for %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Window returns the records of the last days calendar days, including today.
// days <= 0 uses DefaultWindowDays.
func (s *SQLiteStore) Window(ctx context.Context, now time.Time, days int) ([]models.HistoryRecord, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return s.Since(ctx, dateOf(now).AddDate(0, 0, -days))
}

// Prune deletes records dated before the calendar date of before.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM outfit_history WHERE worn_on < ?`, dateOf(before).Format(dateLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
