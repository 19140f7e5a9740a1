package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/pkg/logger"
	_ "modernc.org/sqlite"
)

// SearchStorage is a SQLite-based log of dashboard fetches
type SearchStorage struct {
	db               *sql.DB
	logger           *logger.Logger
	maxSearchesInAPI int
}

// NewSearchStorage opens (or creates) the database at dbPath
func NewSearchStorage(dbPath string, maxSearchesInAPI int, log *logger.Logger) (*SearchStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage", logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=10000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	storage := &SearchStorage{
		db:               db,
		logger:           storageLogger,
		maxSearchesInAPI: maxSearchesInAPI,
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *SearchStorage) initDB() error {
	s.logger.Info("Initializing database schema")

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			query TEXT NOT NULL,
			kind TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT,
			requested_at TEXT NOT NULL,
			resolved_at TEXT NOT NULL,
			latency_ms INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create searches table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_searches_session ON searches(session_id)`)
	if err != nil {
		return fmt.Errorf("failed to create session_id index: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_searches_requested_at ON searches(requested_at)`)
	if err != nil {
		return fmt.Errorf("failed to create requested_at index: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SearchStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MaxSearchesInAPI is the largest page the API may request
func (s *SearchStorage) MaxSearchesInAPI() int {
	return s.maxSearchesInAPI
}

// RecordSearch stores a finished fetch and sets its ID
func (s *SearchStorage) RecordSearch(ctx context.Context, record *dashboard.SearchRecord) error {
	var errText sql.NullString
	if record.Error != "" {
		errText = sql.NullString{String: record.Error, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO searches
		(session_id, seq, query, kind, outcome, error, requested_at, resolved_at, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SessionID,
		int64(record.Seq),
		record.Query,
		record.Kind,
		record.Outcome,
		errText,
		record.RequestedAt.UTC().Format(time.RFC3339Nano),
		record.ResolvedAt.UTC().Format(time.RFC3339Nano),
		record.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	s.logger.Debug("Search recorded",
		logger.String("session_id", record.SessionID),
		logger.Uint64("seq", record.Seq),
		logger.String("outcome", record.Outcome))

	return nil
}

// RecentSearches returns the newest searches first. limit is clamped to
// [1, MaxSearchesInAPI].
func (s *SearchStorage) RecentSearches(ctx context.Context, limit int) ([]*dashboard.SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, query, kind, outcome, error, requested_at, resolved_at, latency_ms
		FROM searches
		ORDER BY id DESC
		LIMIT ?`,
		s.clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	return scanSearches(rows)
}

// SessionSearches returns the searches of one session in the order they finished
func (s *SearchStorage) SessionSearches(ctx context.Context, sessionID string) ([]*dashboard.SearchRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, query, kind, outcome, error, requested_at, resolved_at, latency_ms
		FROM searches
		WHERE session_id = ?
		ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session searches: %w", err)
	}
	defer rows.Close()

	return scanSearches(rows)
}

// OutcomeCounts returns the number of stored searches per outcome
func (s *SearchStorage) OutcomeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM searches GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count searches: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

func (s *SearchStorage) clampLimit(limit int) int {
	if s.maxSearchesInAPI > 0 && (limit <= 0 || limit > s.maxSearchesInAPI) {
		return s.maxSearchesInAPI
	}
	if limit <= 0 {
		return 1
	}
	return limit
}

func scanSearches(rows *sql.Rows) ([]*dashboard.SearchRecord, error) {
	records := make([]*dashboard.SearchRecord, 0)
	for rows.Next() {
		var record dashboard.SearchRecord
		var seq int64
		var errText sql.NullString
		var requestedAt, resolvedAt string

		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&seq,
			&record.Query,
			&record.Kind,
			&record.Outcome,
			&errText,
			&requestedAt,
			&resolvedAt,
			&record.LatencyMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}

		record.Seq = uint64(seq)
		if errText.Valid {
			record.Error = errText.String
		}

		var err error
		if record.RequestedAt, err = time.Parse(time.RFC3339Nano, requestedAt); err != nil {
			return nil, fmt.Errorf("failed to parse requested_at: %w", err)
		}
		if record.ResolvedAt, err = time.Parse(time.RFC3339Nano, resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to parse resolved_at: %w", err)
		}

		records = append(records, &record)
	}
	return records, rows.Err()
}
