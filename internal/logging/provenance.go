package logging

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// #region log-run
// NewRunEntry serializes params and outcome into an entry of kind.
func NewRunEntry(kind string, params, outcome any) (RunEntry, error) {
	p, err := json.Marshal(params)
	if err != nil {
		return RunEntry{}, fmt.Errorf("marshal params: %w", err)
	}
	o, err := json.Marshal(outcome)
	if err != nil {
		return RunEntry{}, fmt.Errorf("marshal outcome: %w", err)
	}
	return RunEntry{Kind: kind, ParamsJSON: string(p), OutcomeJSON: string(o)}, nil
}

// LogRun writes a run entry to the run_log table and returns its run id.
func LogRun(db *sql.DB, entry RunEntry) (string, error) {
	if entry.RunID == "" {
		entry.RunID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, kind, version_id, params_json, outcome_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Kind,
		nullIfEmpty(entry.VersionID),
		nullIfEmpty(entry.ParamsJSON),
		nullIfEmpty(entry.OutcomeJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("log run: %w", err)
	}
	return entry.RunID, nil
}

// #endregion log-run

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
