package session

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// JournalFile is the journal database name inside the config directory.
const JournalFile = "journal.db"

// Journal is a per-user sqlite audit of applied and failed edits, keyed by
// project root.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the journal database at dbPath.
func OpenJournal(ctx context.Context, dbPath string) (*Journal, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// One writer; sqlite serializes the rest anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS edits (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		root       TEXT NOT NULL,
		path       TEXT NOT NULL,
		status     TEXT NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edits_root ON edits(root, id);
	`
	_, err := j.db.ExecContext(ctx, schema)
	return err
}

// Record stores e, assigning its ID and timestamp when unset, and returns
// the stored entry.
func (j *Journal) Record(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Root = filepath.Clean(e.Root)

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO edits (id, session_id, root, path, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Root, e.Path, string(e.Status), e.Reason, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("failed to record edit of %s: %w", e.Path, err)
	}
	return e, nil
}

// History returns the most recent limit entries for root, oldest first.
// A limit <= 0 returns everything.
func (j *Journal) History(ctx context.Context, root string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, root, path, status, reason, created_at FROM (
			SELECT * FROM edits WHERE root = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		filepath.Clean(root), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var (
			e       JournalEntry
			status  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Root, &e.Path, &status, &e.Reason, &created); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Status = EditStatus(status)
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
