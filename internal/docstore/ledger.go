package docstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one committed update as recorded in the audit ledger.
type Entry struct {
	Session string
	Roots   []string
	Paths   []string
	At      time.Time
}

// Ledger is an append-only audit trail of committed updates backed by sqlite.
// Writes are queued to a single writer goroutine and dropped when it falls behind;
// the ledger is never on the commit path.
type Ledger struct {
	db *sql.DB

	ch   chan Entry
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

func OpenLedger(path string) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("empty ledger path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS updates (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		roots TEXT NOT NULL,
		paths TEXT NOT NULL,
		at_ms INTEGER NOT NULL
	);`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	l := &Ledger{
		db: db,
		ch: make(chan Entry, 4096),
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop()
	}()
	return l, nil
}

// Record queues e for writing.
func (l *Ledger) Record(e Entry) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return
	}
	select {
	case l.ch <- e:
	default:
		slog.Warn("audit ledger behind, dropping entry", "session", e.Session)
	}
}

// Entries returns the most recent entries, newest first.
func (l *Ledger) Entries(limit int) ([]Entry, error) {
	rows, err := l.db.Query(`SELECT session, roots, paths, at_ms FROM updates ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e            Entry
			roots, paths string
			atMs         int64
		)
		if err := rows.Scan(&e.Session, &roots, &paths, &atMs); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		e.Roots = strings.Split(roots, ",")
		e.Paths = strings.Split(paths, ",")
		e.At = time.UnixMilli(atMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close flushes queued entries and closes the database.
func (l *Ledger) Close() error {
	var err error
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.ch)
		l.mu.Unlock()

		l.wg.Wait()
		err = l.db.Close()
	})
	return err
}

func (l *Ledger) loop() {
	insert, err := l.db.Prepare(`INSERT INTO updates(session, roots, paths, at_ms) VALUES(?,?,?,?)`)
	if err != nil {
		slog.Error("preparing ledger insert", "error", err)
		for range l.ch {
		}
		return
	}
	defer func() { _ = insert.Close() }()

	for e := range l.ch {
		_, err := insert.Exec(e.Session, strings.Join(e.Roots, ","), strings.Join(e.Paths, ","), e.At.UnixMilli())
		if err != nil {
			slog.Warn("writing ledger entry", "session", e.Session, "error", err)
		}
	}
}
