// Package eventlog persists the engine's audit trail to SQLite, with an
// optional CSV mirror of the same rows. It implements game.EventSink.
package eventlog

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/coder/quartz"
	_ "modernc.org/sqlite"

	"github.com/lox/bluffdeal/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	session_id TEXT,
	round_idx  INTEGER,
	phase      TEXT,
	actor      TEXT,
	action     TEXT,
	payload    TEXT,
	t_mono_ns  INTEGER,
	t_utc_iso  TEXT
)`

// Logger is the durable event sink used in production. Every Log call
// inserts one row into the events table before returning; the returned
// entry carries the timestamp the row was stored with.
//
// Like the engine it serves, Logger expects a single caller and does no
// locking of its own.
type Logger struct {
	sessionID string
	db        *sql.DB
	clock     quartz.Clock
	started   time.Time

	csvPath string
	csvFile *os.File
	csvw    *csv.Writer
}

// Option configures a Logger during Open.
type Option func(*Logger)

// WithClock injects a clock, letting tests control timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(l *Logger) { l.clock = clock }
}

// WithCSVMirror appends every stored row to a CSV file alongside the
// database.
func WithCSVMirror(path string) Option {
	return func(l *Logger) { l.csvPath = path }
}

// Open creates or opens the event database at dbPath, creating parent
// directories as needed.
func Open(sessionID, dbPath string, opts ...Option) (*Logger, error) {
	l := &Logger{
		sessionID: sessionID,
		clock:     quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	l.db = db
	l.started = l.clock.Now()

	if l.csvPath != "" {
		if dir := filepath.Dir(l.csvPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				db.Close()
				return nil, fmt.Errorf("create csv mirror dir: %w", err)
			}
		}
		f, err := os.OpenFile(l.csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open csv mirror: %w", err)
		}
		l.csvFile = f
		l.csvw = csv.NewWriter(f)
	}
	return l, nil
}

// Log stores one audit row and returns the canonical entry.
func (l *Logger) Log(roundIdx int, phase game.Phase, actor game.Actor, action string, payload map[string]any) (game.Entry, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	now := l.clock.Now().UTC()
	mono := now.Sub(l.started).Nanoseconds()
	encoded, err := json.Marshal(payload)
	if err != nil {
		return game.Entry{}, fmt.Errorf("encode payload: %w", err)
	}
	iso := now.Format(time.RFC3339Nano)

	_, err = l.db.Exec(
		`INSERT INTO events VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.sessionID, roundIdx, phase.String(), string(actor), action, string(encoded), mono, iso,
	)
	if err != nil {
		return game.Entry{}, fmt.Errorf("insert event: %w", err)
	}

	if l.csvw != nil {
		row := []string{
			l.sessionID,
			strconv.Itoa(roundIdx),
			phase.String(),
			string(actor),
			action,
			string(encoded),
			strconv.FormatInt(mono, 10),
			iso,
		}
		if err := l.csvw.Write(row); err != nil {
			return game.Entry{}, fmt.Errorf("mirror event: %w", err)
		}
		l.csvw.Flush()
		if err := l.csvw.Error(); err != nil {
			return game.Entry{}, fmt.Errorf("mirror event: %w", err)
		}
	}

	return game.Entry{
		RoundIndex: roundIdx,
		Phase:      phase,
		Actor:      actor,
		Action:     action,
		Payload:    payload,
		LoggedAt:   now,
	}, nil
}

// Close flushes the CSV mirror and closes the database. Safe to call more
// than once.
func (l *Logger) Close() error {
	var firstErr error
	if l.csvw != nil {
		l.csvw.Flush()
		if err := l.csvw.Error(); err != nil {
			firstErr = err
		}
		if err := l.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.csvw = nil
		l.csvFile = nil
	}
	if l.db != nil {
		if err := l.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.db = nil
	}
	return firstErr
}
