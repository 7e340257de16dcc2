// Package store persists emitted feedback records so instructors can review
// a learner's progress after the fact. Rules themselves are never stored
// here; only evaluation results are.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"codecoach/internal/events"
	"codecoach/internal/feedback"
	"codecoach/internal/logging"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS feedback_history (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	phase TEXT NOT NULL,
	target TEXT NOT NULL,
	severity TEXT,
	message TEXT,
	matched_text TEXT,
	non_boolean_matcher INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_session
	ON feedback_history(session_id, created_at);
`

// History is a SQLite-backed log of feedback records.
type History struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	log  *zap.Logger
}

// OpenHistory initializes the history database at path, creating parent
// directories and the schema as needed. Use ":memory:" for tests.
func OpenHistory(path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	h := &History{
		db:   db,
		path: path,
		log:  logging.Get(logging.CategoryStore),
	}
	h.log.Debug("feedback history opened", zap.String("path", path))
	return h, nil
}

// RecordMatches stores one evaluation pass's records under a session.
func (h *History) RecordMatches(sessionID string, records []feedback.Record) error {
	if len(records) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO feedback_history
		 (id, session_id, rule_id, phase, target, severity, message, matched_text, non_boolean_matcher)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.ID, sessionID, r.RuleID, string(r.Phase),
			string(r.Target), r.Severity, r.Message, r.MatchedText,
			boolToInt(r.NonBooleanMatcher)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert history record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Entry is one stored feedback record.
type Entry struct {
	RuleID            string
	Phase             string
	Target            string
	Severity          string
	Message           string
	MatchedText       string
	NonBooleanMatcher bool
	CreatedAt         time.Time
}

// RecentMatches returns the newest entries for a session, newest first.
func (h *History) RecentMatches(sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(
		`SELECT rule_id, phase, target, severity, message, matched_text, non_boolean_matcher, created_at
		 FROM feedback_history
		 WHERE session_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var nonBool int
		if err := rows.Scan(&e.RuleID, &e.Phase, &e.Target, &e.Severity,
			&e.Message, &e.MatchedText, &nonBool, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.NonBooleanMatcher = nonBool != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByRule reports how often each rule fired for a session.
func (h *History) CountByRule(sessionID string) (map[string]int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(
		`SELECT rule_id, COUNT(*) FROM feedback_history
		 WHERE session_id = ? GROUP BY rule_id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ruleID string
		var n int
		if err := rows.Scan(&ruleID, &n); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[ruleID] = n
	}
	return counts, rows.Err()
}

// Attach subscribes the history to an engine's "matches" events under the
// given session. Detach with engine.Off(listener).
func (h *History) Attach(eng *feedback.Engine, sessionID string) *events.Listener {
	return eng.On(events.EventMatches, func(payload interface{}) {
		records, ok := payload.([]feedback.Record)
		if !ok {
			return
		}
		if err := h.RecordMatches(sessionID, records); err != nil {
			h.log.Warn("failed to persist matches",
				zap.String("session", sessionID),
				zap.Error(err))
		}
	})
}

// Close releases the underlying database.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
