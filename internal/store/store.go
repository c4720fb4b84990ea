package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

// ErrNotFound is returned for an unknown version or an empty history.
var ErrNotFound = errors.New("not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	label         TEXT NOT NULL,
	document      BLOB NOT NULL,
	created_at    TEXT NOT NULL,
	metrics_json  TEXT,
	FOREIGN KEY (parent_id) REFERENCES snapshots(version_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	run_id        TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	version_id    TEXT,
	params_json   TEXT,
	outcome_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES snapshots(version_id)
);
`

// #endregion schema

// #region store-struct
// Store keeps questionnaire snapshot history and the run log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the run log writer.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region commit
// CommitQuestionnaire encodes q as a new snapshot whose parent is the current
// active version (if any) and makes it active.
func (s *Store) CommitQuestionnaire(q *quiz.Questionnaire, label, metricsJSON string) (Snapshot, error) {
	doc, err := quiz.Encode(q)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	parent, err := s.activeID()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, err
	}
	rec := Snapshot{
		VersionID:   uuid.New().String(),
		ParentID:    parent,
		Label:       label,
		Document:    doc,
		CreatedAt:   time.Now().UTC(),
		MetricsJSON: metricsJSON,
	}
	if err := s.Commit(rec); err != nil {
		return Snapshot{}, err
	}
	return rec, nil
}

// Commit inserts a snapshot and moves the active pointer to it atomically.
func (s *Store) Commit(rec Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (version_id, parent_id, label, document, created_at, metrics_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), rec.Label, rec.Document,
		rec.CreatedAt.Format(time.RFC3339Nano), nullIfEmpty(rec.MetricsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_snapshot (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// #endregion commit

// #region get
func (s *Store) activeID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT version_id FROM active_snapshot WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("active snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return id, nil
}

// GetCurrent reads the active snapshot.
func (s *Store) GetCurrent() (Snapshot, error) {
	id, err := s.activeID()
	if err != nil {
		return Snapshot{}, err
	}
	return s.GetVersion(id)
}

// GetVersion retrieves a snapshot by id.
func (s *Store) GetVersion(id string) (Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, label, document, created_at, metrics_json
		 FROM snapshots WHERE version_id = ?`, id,
	)
	rec, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM snapshots WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s: %w", targetVersionID, ErrNotFound)
	}

	_, err = s.db.Exec(`UPDATE active_snapshot SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list
// ListVersions returns the most recent snapshots, newest first.
func (s *Store) ListVersions(limit int) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, label, document, created_at, metrics_json
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []Snapshot
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListRuns returns the most recent run log entries, newest first. An empty
// kind lists every kind.
func (s *Store) ListRuns(kind string, limit int) ([]logging.RunEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, kind, version_id, params_json, outcome_json, decision, reason, created_at
		 FROM run_log WHERE (? = '' OR kind = ?) ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		kind, kind, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []logging.RunEntry
	for rows.Next() {
		var e logging.RunEntry
		var versionID, params, outcome, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Kind, &versionID, &params, &outcome, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.VersionID = versionID.String
		e.ParamsJSON = params.String
		e.OutcomeJSON = outcome.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var rec Snapshot
	var parentID, metricsJSON sql.NullString
	var createdStr string
	if err := row.Scan(&rec.VersionID, &parentID, &rec.Label, &rec.Document, &createdStr, &metricsJSON); err != nil {
		return Snapshot{}, err
	}
	rec.ParentID = parentID.String
	rec.MetricsJSON = metricsJSON.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
