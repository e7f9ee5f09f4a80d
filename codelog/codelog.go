// Package codelog records "code created" events of the handler compiler in
// a SQLite database.
package codelog

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/icache/ic"
)

var log = commonlog.GetLogger("icache.codelog")

// Event is one synthesized handler.
type Event struct {
	Isolate     string
	Serial      uint32
	Tag         string
	Strategy    string
	Flags       uint32
	NameOrIndex string
}

// Log implements ic.Profiler. Events are buffered in memory until Flush.
type Log struct {
	db      *sql.DB
	path    string
	isolate string

	mu      sync.Mutex
	pending []Event
}

// Open opens or creates the code log at path. Use ":memory:" for a
// throwaway log.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening code log: %w", err)
	}
	if path == ":memory:" {
		// Every connection of an in-memory database is its own database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS code_created (
		isolate TEXT NOT NULL,
		serial INTEGER NOT NULL,
		tag TEXT NOT NULL,
		strategy TEXT NOT NULL,
		flags INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (isolate, serial)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Log{db: db, path: path}, nil
}

// SetIsolate stamps subsequent events with the isolate identity.
func (l *Log) SetIsolate(id string) {
	l.mu.Lock()
	l.isolate = id
	l.mu.Unlock()
}

// HandlerCreated implements ic.Profiler.
func (l *Log) HandlerCreated(tag ic.LogTag, h *ic.Handler, nameOrIndex string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, Event{
		Isolate:     l.isolate,
		Serial:      h.Serial(),
		Tag:         tag.String(),
		Strategy:    h.Strategy().String(),
		Flags:       uint32(h.Flags()),
		NameOrIndex: nameOrIndex,
	})
}

// Pending is the number of events not yet flushed.
func (l *Log) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush writes buffered events in one transaction.
func (l *Log) Flush() error {
	l.mu.Lock()
	events := l.pending
	l.pending = nil
	l.mu.Unlock()
	if len(events) == 0 {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO code_created (isolate, serial, tag, strategy, flags, name) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err := stmt.Exec(e.Isolate, e.Serial, e.Tag, e.Strategy, e.Flags, e.NameOrIndex); err != nil {
			tx.Rollback()
			return fmt.Errorf("saving event %d: %w", e.Serial, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	log.Debugf("flushed %d code events to %s", len(events), l.path)
	return nil
}

// Events returns the flushed events of an isolate in creation order, or
// of every isolate when isolate is empty.
func (l *Log) Events(isolate string) ([]Event, error) {
	query := "SELECT isolate, serial, tag, strategy, flags, name FROM code_created"
	var args []any
	if isolate != "" {
		query += " WHERE isolate = ?"
		args = append(args, isolate)
	}
	query += " ORDER BY isolate, serial"

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Isolate, &e.Serial, &e.Tag, &e.Strategy, &e.Flags, &e.NameOrIndex); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close flushes pending events and closes the database.
func (l *Log) Close() error {
	err := l.Flush()
	if cerr := l.db.Close(); err == nil {
		err = cerr
	}
	return err
}
