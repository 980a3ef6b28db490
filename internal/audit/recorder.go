// Package audit persists a durable trail of transition lifecycle
// events. The recorder subscribes to the notification bus and never
// vetoes; it exists for post-hoc debugging of failed or aborted
// transitions.
package audit

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	// Pure-Go SQLite driver, registered for database/sql. No CGO, so
	// cross-compilation stays trivial.
	_ "modernc.org/sqlite"

	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/pkg/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS transition_events (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	phase TEXT NOT NULL,
	state TEXT NOT NULL,
	at    TEXT NOT NULL
);
`

// Entry is one recorded transition event.
type Entry struct {
	ID    int64
	Phase string
	State string
	At    time.Time
}

// Recorder writes transition events to SQLite, pruning the oldest rows
// beyond a configured cap.
type Recorder struct {
	mu      sync.Mutex
	db      *sql.DB
	maxRows int
	logger  log.Logger
}

// Open creates or opens the audit database at path. maxRows caps the
// retained history; zero or negative means unbounded.
func Open(path string, maxRows int, logger log.Logger) (*Recorder, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return &Recorder{db: db, maxRows: maxRows, logger: logger}, nil
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Receive implements notify.Subscriber. Recording failures are logged
// and swallowed: the audit trail must never block a transition.
func (r *Recorder) Receive(event domain.TransitionEvent) domain.Verdict {
	if err := r.record(event); err != nil {
		r.logger.Error("audit record failed", log.Err(err))
	}
	return domain.Accept
}

// record inserts the event and prunes beyond maxRows in one tx.
func (r *Recorder) record(event domain.TransitionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	at := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.Exec(
		`INSERT INTO transition_events (phase, state, at) VALUES (?, ?, ?)`,
		event.Phase.String(), event.State.String(), at,
	)
	if err != nil {
		return fmt.Errorf("insert transition event: %w", err)
	}

	if r.maxRows > 0 {
		const prune = `
			DELETE FROM transition_events
			WHERE id NOT IN (SELECT id FROM transition_events ORDER BY id DESC LIMIT ?)
		`
		if _, err := tx.Exec(prune, r.maxRows); err != nil {
			return fmt.Errorf("prune transition events: %w", err)
		}
	}

	return tx.Commit()
}

// List returns recorded events newest first. limit <= 0 returns all.
func (r *Recorder) List(limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `SELECT id, phase, state, at FROM transition_events ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transition events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e     Entry
			atStr string
		)
		if err := rows.Scan(&e.ID, &e.Phase, &e.State, &atStr); err != nil {
			return nil, fmt.Errorf("scan transition event: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, atStr)
		if err != nil {
			return nil, fmt.Errorf("parse transition event time: %w", err)
		}
		e.At = at
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transition events: %w", err)
	}
	return entries, nil
}
