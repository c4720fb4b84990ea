package reach

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/quiz-calibrator/internal/encode"
	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/resolve"
	"github.com/danielpatrickdp/quiz-calibrator/internal/score"
	"github.com/danielpatrickdp/quiz-calibrator/internal/smt"
)

var (
	// ErrUnknownResultID is a usage error: a requested id is not a result.
	ErrUnknownResultID = errors.New("unknown result id")
	// ErrWitnessMismatch means a solver model does not replay to its result.
	ErrWitnessMismatch = errors.New("witness does not replay")
)

// #region types
// Request selects what to prove and how.
type Request struct {
	// IDs limits the check to these results; empty checks all of them.
	IDs      []string
	Witness  bool
	Workers  int
	Backend  smt.Backend
	RankMode encode.RankMode
}

// Verdict is the answer for one result. Witness is set only when requested
// and the result is reachable. Confirmed is false only under the relaxed rank
// mode, when the solver's path resolves to a different result.
type Verdict struct {
	ID        string `json:"id"`
	Reachable bool   `json:"reachable"`
	Confirmed bool   `json:"confirmed"`
	Witness   []int  `json:"witness,omitempty"`
}

// Report holds verdicts in result declaration order.
type Report struct {
	Verdicts []Verdict `json:"verdicts"`
}

// Reachable reports the verdict for id.
func (r Report) Reachable(id string) bool {
	for _, v := range r.Verdicts {
		if v.ID == id {
			return v.Reachable
		}
	}
	return false
}

// Unreachable lists the results proven unreachable.
func (r Report) Unreachable() []string {
	var out []string
	for _, v := range r.Verdicts {
		if !v.Reachable {
			out = append(out, v.ID)
		}
	}
	return out
}

// #endregion types

// #region check
// Check decides, per selected result, whether some answer path makes it the
// winner. Unreachable is an answer, not an error.
func Check(ctx context.Context, q *quiz.Questionnaire, req Request) (Report, error) {
	targets, err := selectTargets(q, req.IDs)
	if err != nil {
		return Report{}, err
	}
	if req.Backend == nil {
		req.Backend = smt.Search{}
	}
	enc, err := encode.Build(q, req.RankMode)
	if err != nil {
		return Report{}, err
	}
	res, err := resolve.New(q)
	if err != nil {
		return Report{}, err
	}
	p := &prover{
		enc:     enc,
		res:     res,
		m:       q.Matrix(),
		backend: req.Backend,
		witness: req.Witness,
		relaxed: req.RankMode == encode.RankRelaxed,
	}

	verdicts := make([]Verdict, len(targets))
	chunks := montecarlo.SplitEven(len(targets), max(1, req.Workers))
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chunks {
		g.Go(func() error {
			for k := c.Start; k < c.End; k++ {
				v, err := p.prove(gctx, targets[k])
				if err != nil {
					return err
				}
				verdicts[k] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Verdicts: verdicts}, nil
}

func selectTargets(q *quiz.Questionnaire, ids []string) ([]int, error) {
	if len(ids) == 0 {
		all := make([]int, len(q.Results))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	var out []int
	for _, id := range ids {
		i := q.ResultIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("%q: %w", id, ErrUnknownResultID)
		}
		if !slices.Contains(out, i) {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out, nil
}

// #endregion check

// #region prover
type prover struct {
	enc     *encode.Encoding
	res     *resolve.Resolver
	m       score.Matrix
	backend smt.Backend
	witness bool
	relaxed bool
}

func (p *prover) prove(ctx context.Context, i int) (Verdict, error) {
	id := p.enc.IDs[i]
	log := zerolog.Ctx(ctx).With().Str("component", "reach").Str("result", id).Logger()

	s := p.backend.NewSolver()
	s.Assert(p.enc.Wins(i)...)
	st, err := s.Check(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("check %s: %w", id, err)
	}
	switch st {
	case smt.Unsat:
		log.Debug().Msg("unreachable")
		return Verdict{ID: id}, nil
	case smt.Unknown:
		return Verdict{}, fmt.Errorf("check %s: solver answered unknown", id)
	}

	model, err := s.Model()
	if err != nil {
		return Verdict{}, fmt.Errorf("model %s: %w", id, err)
	}
	path := p.enc.Witness(model)
	won, err := p.res.Resolve(p.m.Profile(path))
	if err != nil {
		return Verdict{}, fmt.Errorf("replay %s: %w", id, err)
	}
	confirmed := won == i
	if !confirmed {
		if !p.relaxed {
			return Verdict{}, fmt.Errorf("%s: path %v resolves to %s: %w", id, path, p.res.ID(won), ErrWitnessMismatch)
		}
		log.Warn().Ints("witness", path).Str("resolved", p.res.ID(won)).Msg("relaxed rank witness does not replay")
	} else {
		log.Debug().Ints("witness", path).Msg("reachable")
	}

	v := Verdict{ID: id, Reachable: true, Confirmed: confirmed}
	if p.witness {
		v.Witness = path
	}
	return v, nil
}

// #endregion prover

// #region ideal-path
// Ideal is a witness path for one target result with its final scores.
type Ideal struct {
	Verdict
	Scores score.Vector `json:"scores,omitempty"`
}

// IdealPath finds an answer path that makes id the winner.
func IdealPath(ctx context.Context, q *quiz.Questionnaire, id string, backend smt.Backend, mode encode.RankMode) (Ideal, error) {
	rep, err := Check(ctx, q, Request{IDs: []string{id}, Witness: true, Workers: 1, Backend: backend, RankMode: mode})
	if err != nil {
		return Ideal{}, err
	}
	out := Ideal{Verdict: rep.Verdicts[0]}
	if out.Reachable {
		out.Scores = q.Matrix().Final(out.Witness)
	}
	return out, nil
}

// #endregion ideal-path

// Coverage lists results proven reachable that a sampling run never selected.
func Coverage(rep Report, d montecarlo.Distribution) []string {
	var out []string
	for _, v := range rep.Verdicts {
		if v.Reachable && d.Counts[v.ID] == 0 {
			out = append(out, v.ID)
		}
	}
	return out
}
