package convlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed resolution, as handed to the durable log.
type Record struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"timestamp"`
}

// Stats are the aggregate counters the stats endpoint and the report
// are built from.
type Stats struct {
	TotalConversations int `json:"total_conversations"`
	UniqueSessions     int `json:"unique_sessions"`
}

// Store is the sqlite-backed conversation log.
type Store struct {
	db *sql.DB
}

// NewStore creates/opens the conversation database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create conversation db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process log. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			bot_response TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS conversations_session_idx ON conversations(session_id, created_at_ms DESC);`,
		`CREATE INDEX IF NOT EXISTS conversations_created_idx ON conversations(created_at_ms);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init conversation db: %w", err)
		}
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, session_id, user_message, bot_response, created_at_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.UserMessage, rec.BotResponse, rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// History returns the most recent limit records for a session, oldest
// first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_message, bot_response, created_at_ms
		 FROM conversations WHERE session_id = ?
		 ORDER BY created_at_ms DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the query; flip to chronological order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// All returns up to limit records across every session, oldest first.
// limit <= 0 means no cap.
func (s *Store) All(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, session_id, user_message, bot_response, created_at_ms
		 FROM conversations ORDER BY created_at_ms ASC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT session_id) FROM conversations`).
		Scan(&stats.TotalConversations, &stats.UniqueSessions)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// DeleteOlderThan drops records created before cutoff and reports how
// many were removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE created_at_ms < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete old conversations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var createdMS int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserMessage, &rec.BotResponse, &createdMS); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdMS)
		records = append(records, rec)
	}
	return records, rows.Err()
}
