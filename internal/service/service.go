// Package service is the entry point layer shared by the command-line tools:
// sampling, reachability and tuning over one questionnaire, each deterministic
// given its seed.
package service

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/quiz-calibrator/internal/encode"
	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/smt"
	"github.com/danielpatrickdp/quiz-calibrator/internal/tune"
)

// #region sample
// SampleRequest is a sampling run.
type SampleRequest struct {
	Samples int   `json:"samples"`
	Seed    int64 `json:"seed"`
	Workers int   `json:"workers"`
}

// Sample estimates the outcome distribution of q.
func Sample(ctx context.Context, q *quiz.Questionnaire, req SampleRequest) (montecarlo.Distribution, error) {
	if err := q.Validate(); err != nil {
		return montecarlo.Distribution{}, err
	}
	if req.Samples <= 0 {
		return montecarlo.Distribution{}, fmt.Errorf("sample: samples must be positive, got %d", req.Samples)
	}
	return montecarlo.Sample(ctx, q, req.Samples, req.Seed, req.Workers)
}

// #endregion sample

// #region reach
// ReachRequest is a reachability run. Solver names a backend accepted by
// smt.Lookup; SolverPath is the external executable for the smtlib backend.
type ReachRequest struct {
	IDs        []string        `json:"ids,omitempty"`
	Witness    bool            `json:"witness"`
	Workers    int             `json:"workers"`
	Solver     string          `json:"solver"`
	SolverPath string          `json:"solver_path,omitempty"`
	RankMode   encode.RankMode `json:"rank_mode"`
}

// Reach proves per-result reachability. An unavailable solver fails here
// and nowhere else.
func Reach(ctx context.Context, q *quiz.Questionnaire, req ReachRequest) (reach.Report, error) {
	if err := q.Validate(); err != nil {
		return reach.Report{}, err
	}
	backend, err := smt.Lookup(req.Solver, req.SolverPath)
	if err != nil {
		return reach.Report{}, err
	}
	return reach.Check(ctx, q, reach.Request{
		IDs:      req.IDs,
		Witness:  req.Witness,
		Workers:  req.Workers,
		Backend:  backend,
		RankMode: req.RankMode,
	})
}

// IdealPath finds one answer path to id with its final scores.
func IdealPath(ctx context.Context, q *quiz.Questionnaire, id string, req ReachRequest) (reach.Ideal, error) {
	if err := q.Validate(); err != nil {
		return reach.Ideal{}, err
	}
	backend, err := smt.Lookup(req.Solver, req.SolverPath)
	if err != nil {
		return reach.Ideal{}, err
	}
	return reach.IdealPath(ctx, q, id, backend, req.RankMode)
}

// CoverageReport pairs a proof run with a sampling run of the same questionnaire.
type CoverageReport struct {
	Report       reach.Report            `json:"report"`
	Distribution montecarlo.Distribution `json:"distribution"`
	Missed       []string                `json:"missed"` // reachable, never sampled
}

// Coverage runs both and lists results the sample missed.
func Coverage(ctx context.Context, q *quiz.Questionnaire, sreq SampleRequest, rreq ReachRequest) (CoverageReport, error) {
	d, err := Sample(ctx, q, sreq)
	if err != nil {
		return CoverageReport{}, err
	}
	rep, err := Reach(ctx, q, rreq)
	if err != nil {
		return CoverageReport{}, err
	}
	return CoverageReport{Report: rep, Distribution: d, Missed: reach.Coverage(rep, d)}, nil
}

// #endregion reach

// #region tune
// TuneRequest is a tuning run.
type TuneRequest struct {
	Goals    tune.Goals
	Config   tune.Config
	Progress func(tune.Progress)
}

// Tune anneals a private copy of q toward the goals.
func Tune(ctx context.Context, q *quiz.Questionnaire, req TuneRequest) (*tune.Outcome, error) {
	return tune.New(req.Config, req.Goals, req.Progress).Run(ctx, q)
}

// #endregion tune
