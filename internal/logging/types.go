package logging

import "time"

// #region run-entry
// Run kinds recorded in run_log.
const (
	KindSample = "sample"
	KindReach  = "reach"
	KindIdeal  = "ideal_path"
	KindTune   = "tune"
	KindReplay = "replay"
)

// RunEntry is a single row in the run_log table: one tool invocation, the
// snapshot it ran against, its inputs and what came out.
type RunEntry struct {
	RunID       string
	Kind        string
	VersionID   string // snapshot version, empty when no history is kept
	ParamsJSON  string
	OutcomeJSON string
	Decision    string // short verdict: "ok", "unreachable", "diverged", "saved", ...
	Reason      string
	CreatedAt   time.Time
}

// #endregion run-entry
