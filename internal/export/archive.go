package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stellarlinkco/daymate/internal/session"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Archive keeps exported snapshots in a sqlite database, one row per export.
type Archive struct {
	db *sql.DB
}

// Entry is an archive row without its document.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Questions int
}

func OpenArchive(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	a := &Archive{db: db}
	if err := a.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := a.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := a.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (a *Archive) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			questions INTEGER NOT NULL DEFAULT 0,
			document TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save inserts snap, replacing any earlier row with the same ID.
func (a *Archive) Save(ctx context.Context, snap session.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exports (id, created_at, questions, document) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Date.UTC().Format(time.RFC3339Nano), snap.Stats.QuestionsAsked, string(doc))
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

func (a *Archive) Load(ctx context.Context, id string) (session.Snapshot, error) {
	var doc string
	err := a.db.QueryRowContext(ctx, `SELECT document FROM exports WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("query export: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("decode export %s: %w", id, err)
	}
	return snap, nil
}

// List returns archive entries, newest first.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, created_at, questions FROM exports ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &created, &e.Questions); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
