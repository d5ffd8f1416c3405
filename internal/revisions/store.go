// Package revisions keeps a local history of every flow document version
// written through the editor.
//
// Revisions live in a SQLite database under the data directory, keyed by a
// random UUID. Each row stores the full encoded document, so any revision
// can be inspected or restored without replaying edits.
package revisions

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// newID is a package-level var so tests can produce stable ids.
var newID = func() string { return uuid.NewString() }

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// ─── Types ───────────────────────────────────────────────────────────────────

// Revision is one stored version of a flow document.
type Revision struct {
	ID        string `json:"id"`
	FlowID    string `json:"flow_id"`
	Op        string `json:"op"`
	Summary   string `json:"summary"`
	SHA256    string `json:"sha256"`
	Size      int    `json:"size"`
	CreatedAt string `json:"created_at"`
	Content   string `json:"content,omitempty"`
}

// Config holds revision store settings.
type Config struct {
	DataDir string
	// MaxPerFlow caps the revisions kept per flow; older ones are pruned.
	// Zero keeps everything.
	MaxPerFlow int
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed revision log.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (creating if needed) the revision database in cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("revisions: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "revisions.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("revisions: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("revisions: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("revisions: migration: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS revisions (
			id         TEXT PRIMARY KEY,
			flow_id    TEXT    NOT NULL,
			op         TEXT    NOT NULL,
			summary    TEXT    NOT NULL DEFAULT '',
			sha256     TEXT    NOT NULL,
			size       INTEGER NOT NULL,
			created_at TEXT    NOT NULL,
			seq        INTEGER NOT NULL,
			content    TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rev_flow ON revisions(flow_id, seq DESC);
	`)
	return err
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Record stores content as the newest revision of flowID. When content is
// byte-identical to the newest stored revision nothing is written.
func (s *Store) Record(flowID, op, summary string, content []byte) error {
	hash := hashContent(content)

	var lastHash string
	var lastSeq int64
	err := s.db.QueryRow(
		`SELECT sha256, seq FROM revisions WHERE flow_id = ? ORDER BY seq DESC LIMIT 1`, flowID,
	).Scan(&lastHash, &lastSeq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("revisions: latest for %s: %w", flowID, err)
	case lastHash == hash:
		return nil
	}

	_, err = s.db.Exec(
		`INSERT INTO revisions (id, flow_id, op, summary, sha256, size, created_at, seq, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newID(), flowID, op, summary, hash, len(content),
		timeNow().UTC().Format(time.RFC3339), lastSeq+1, string(content),
	)
	if err != nil {
		return fmt.Errorf("revisions: insert: %w", err)
	}
	return s.prune(flowID, lastSeq+1)
}

// prune drops revisions of flowID that fall outside MaxPerFlow.
func (s *Store) prune(flowID string, newest int64) error {
	if s.cfg.MaxPerFlow <= 0 {
		return nil
	}
	cutoff := newest - int64(s.cfg.MaxPerFlow)
	if cutoff <= 0 {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM revisions WHERE flow_id = ? AND seq <= ?`, flowID, cutoff); err != nil {
		return fmt.Errorf("revisions: prune: %w", err)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// List returns the newest revisions of flowID first, without content.
// limit <= 0 means 20.
func (s *Store) List(flowID string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, flow_id, op, summary, sha256, size, created_at
		 FROM revisions WHERE flow_id = ? ORDER BY seq DESC LIMIT ?`, flowID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("revisions: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.FlowID, &r.Op, &r.Summary, &r.SHA256, &r.Size, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("revisions: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("revisions: list: %w", err)
	}
	return out, nil
}

// Get returns one revision including its content.
func (s *Store) Get(id string) (*Revision, error) {
	var r Revision
	err := s.db.QueryRow(
		`SELECT id, flow_id, op, summary, sha256, size, created_at, content
		 FROM revisions WHERE id = ?`, id,
	).Scan(&r.ID, &r.FlowID, &r.Op, &r.Summary, &r.SHA256, &r.Size, &r.CreatedAt, &r.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &flow.NotFoundError{Kind: "revision", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("revisions: get %s: %w", id, err)
	}
	return &r, nil
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
