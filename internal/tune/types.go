package tune

import (
	"time"

	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

// #region tune-config
// Config holds the search budget and move mix of one tuning run.
type Config struct {
	Iterations         int     // annealing iterations
	Samples            int     // size of the fixed optimisation path set
	FinalSamples       int     // validation sample size (0 = skip validation)
	Seed               int64   // drives path draws, moves and validation
	WeightMutationProb float64 // chance a single mutation targets a weight rather than a result field
	MacroMoveProb      float64 // chance an iteration shifts one option/dimension across all questions
	Workers            int     // tally fan-out per iteration
}

// DefaultConfig returns the budget the retune tool runs with.
func DefaultConfig() Config {
	return Config{
		Iterations:         2800,
		Samples:            12000,
		FinalSamples:       220000,
		Seed:               42,
		WeightMutationProb: 0.45,
		MacroMoveProb:      0.18,
		Workers:            1,
	}
}

// #endregion tune-config

// #region decision
// Decision records what happened to one trial.
type Decision struct {
	Action string // "accept" | "reject" | "no_op"
	Reason string
}

// #endregion decision

// #region progress
// Progress is reported after the first iteration and every Iterations/20 iterations.
type Progress struct {
	Iteration  int
	Iterations int
	Current    float64
	Best       float64
	Elapsed    time.Duration
}

// #endregion progress

// #region outcome
// Validation is the best snapshot re-estimated on an independent sample.
type Validation struct {
	Distribution montecarlo.Distribution
	Objective    float64
}

// Outcome bundles everything a run returns. Questionnaire is a private copy of
// the best snapshot; the input is never touched.
type Outcome struct {
	Questionnaire *quiz.Questionnaire
	Initial       float64
	Objective     float64
	Distribution  montecarlo.Distribution
	Validation    *Validation
	Accepted      int
	Rejected      int
	Improved      int
	WeightParams  int
	ResultParams  int
}

// #endregion outcome
