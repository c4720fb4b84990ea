package tune

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/resolve"
)

// moveSeedOffset separates the move stream from the path-draw stream.
const moveSeedOffset = 101

// #region tuner
// Tuner anneals option weights and result fields toward Goals.
type Tuner struct {
	config   Config
	goals    Goals
	progress func(Progress)
}

// New creates a tuner. progress may be nil.
func New(config Config, goals Goals, progress func(Progress)) *Tuner {
	return &Tuner{config: config, goals: goals, progress: progress}
}

// change is one applied weight mutation, kept for rollback.
type change struct {
	p   *Param
	old int
	had bool // key present before the mutation
}

// snapshot is the pre-trial copy of a result touched by a trial. Restoring it
// whole also undoes the paired fields Set re-sanitised.
type snapshot struct {
	index  int
	result quiz.Result
}

// trial is everything one proposal changed.
type trial struct {
	weights []change
	results []snapshot
	applied int
}

// keep snapshots result ri once per trial.
func (tr *trial) keep(q *quiz.Questionnaire, ri int) {
	for _, s := range tr.results {
		if s.index == ri {
			return
		}
	}
	tr.results = append(tr.results, snapshot{index: ri, result: q.Results[ri].Clone()})
}

// run is the mutable state of one Run call.
type run struct {
	work  *quiz.Questionnaire
	space Space
	paths [][]int
	ids   []string
	rng   *rand.Rand
}

// Run tunes a private copy of q and returns the best snapshot seen. The
// iterations are sequential; only the per-iteration tally fans out. On
// cancellation the best snapshot so far is returned together with ctx.Err().
func (t *Tuner) Run(ctx context.Context, q *quiz.Questionnaire) (*Outcome, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "tune").Logger()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if t.config.Samples <= 0 {
		return nil, fmt.Errorf("tune: samples must be positive, got %d", t.config.Samples)
	}

	r := &run{
		work:  q.Clone(),
		paths: montecarlo.DrawPaths(q.OptionCounts(), t.config.Samples, t.config.Seed),
		ids:   q.ResultIDs(),
		rng:   montecarlo.NewRand(t.config.Seed + moveSeedOffset),
	}
	r.space = BuildSpace(r.work, t.goals.Roles)
	log.Info().
		Int("questions", len(q.Questions)).
		Int("results", len(q.Results)).
		Int("weight_params", len(r.space.Weights)).
		Int("result_params", len(r.space.Results)).
		Msg("tuning")

	counts, cur, err := t.evaluate(ctx, r)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Questionnaire: r.work.Clone(),
		Initial:       cur,
		Objective:     cur,
		Distribution:  montecarlo.NewDistribution(r.ids, counts),
		WeightParams:  len(r.space.Weights),
		ResultParams:  len(r.space.Results),
	}

	start := time.Now()
	iters := t.config.Iterations
	every := max(1, iters/20)
	for it := 0; it < iters; it++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		temp := math.Max(0.01, 1-float64(it)/float64(max(1, iters)))
		tr := t.propose(r, temp)
		if tr.applied > 0 {
			candCounts, cand, err := t.evaluate(ctx, r)
			if err != nil {
				rollback(r.work, tr)
				return out, err
			}
			d := t.decide(r.rng, cur, cand, temp)
			if d.Action == "accept" {
				out.Accepted++
				cur = cand
				if cand < out.Objective {
					out.Improved++
					out.Objective = cand
					out.Distribution = montecarlo.NewDistribution(r.ids, candCounts)
					out.Questionnaire = r.work.Clone()
				}
			} else {
				out.Rejected++
				rollback(r.work, tr)
			}
		}

		if (it+1)%every == 0 || it == 0 {
			p := Progress{Iteration: it + 1, Iterations: iters, Current: cur, Best: out.Objective, Elapsed: time.Since(start)}
			log.Debug().Int("iter", p.Iteration).Float64("cur", p.Current).Float64("best", p.Best).Dur("elapsed", p.Elapsed).Msg("progress")
			if t.progress != nil {
				t.progress(p)
			}
		}
	}

	log.Info().
		Float64("initial", out.Initial).
		Float64("best", out.Objective).
		Int("accepted", out.Accepted).
		Int("improved", out.Improved).
		Msg("tuning done")

	if t.config.FinalSamples > 0 {
		v, err := t.validate(ctx, out.Questionnaire)
		if err != nil {
			return out, err
		}
		out.Validation = v
	}
	return out, nil
}

// #endregion tuner

// #region propose
// propose applies a macro move or one or two single-param mutations to the
// working copy. Mutations that clamp to the current value are skipped.
func (t *Tuner) propose(r *run, temp float64) *trial {
	tr := &trial{}
	apply := func(p *Param, delta int) {
		old := p.Get(r.work)
		next := max(p.Lo, min(p.Hi, old+delta))
		if next == old {
			return
		}
		if p.Kind == ParamWeight {
			_, had := r.work.Questions[p.Q].Options[p.O].Weights[p.dim]
			tr.weights = append(tr.weights, change{p: p, old: old, had: had})
		} else {
			tr.keep(r.work, p.Result)
		}
		p.Set(r.work, next)
		tr.applied++
	}

	if r.rng.Float64() < t.config.MacroMoveProb && len(r.space.Weights) > 0 {
		oi := r.rng.IntN(max(1, len(r.work.Questions[0].Options)))
		di := r.rng.IntN(len(r.work.Dimensions))
		delta := sign(r.rng) * (1 + int(r.rng.Float64()*2))
		for qi := range r.work.Questions {
			if p, ok := r.space.Weight(qi, oi, di); ok {
				apply(p, delta)
			}
		}
		return tr
	}

	n := 2
	if r.rng.Float64() < 0.75 {
		n = 1
	}
	for range n {
		pool := r.space.Results
		if r.rng.Float64() < t.config.WeightMutationProb {
			pool = r.space.Weights
		}
		if len(pool) == 0 {
			continue
		}
		p := &pool[r.rng.IntN(len(pool))]
		spread := 2.0
		if temp > 0.4 {
			spread = 3.0
		}
		magnitude := 1 + int(r.rng.Float64()*spread)
		apply(p, p.Step*sign(r.rng)*magnitude)
	}
	return tr
}

func sign(rng *rand.Rand) int {
	if rng.IntN(2) == 0 {
		return -1
	}
	return 1
}

// rollback restores q to its state before tr: weights are written back
// unclamped in reverse order and touched results are replaced by their
// snapshots.
func rollback(q *quiz.Questionnaire, tr *trial) {
	for i := len(tr.weights) - 1; i >= 0; i-- {
		c := tr.weights[i]
		opt := &q.Questions[c.p.Q].Options[c.p.O]
		if !c.had {
			delete(opt.Weights, c.p.dim)
			continue
		}
		opt.Weights[c.p.dim] = c.old
	}
	for _, s := range tr.results {
		q.Results[s.index] = s.result
	}
}

// #endregion propose

// #region decide
// decide accepts a candidate that is no worse, and an uphill one with
// probability exp(-(cand-cur)/temp).
func (t *Tuner) decide(rng *rand.Rand, cur, cand, temp float64) Decision {
	if cand <= cur {
		return Decision{Action: "accept", Reason: "no worse"}
	}
	uphill := cand - cur
	if rng.Float64() < math.Exp(-uphill/math.Max(1e-4, temp)) {
		return Decision{Action: "accept", Reason: fmt.Sprintf("uphill %.4f at temperature %.3f", uphill, temp)}
	}
	return Decision{Action: "reject", Reason: fmt.Sprintf("uphill %.4f", uphill)}
}

// #endregion decide

// #region evaluate
func (t *Tuner) evaluate(ctx context.Context, r *run) ([]int, float64, error) {
	res, err := resolve.New(r.work)
	if err != nil {
		return nil, 0, fmt.Errorf("evaluate: %w", err)
	}
	counts, err := montecarlo.TallyWith(ctx, res, r.work.Matrix(), r.paths, t.config.Workers)
	if err != nil {
		return nil, 0, fmt.Errorf("evaluate: %w", err)
	}
	return counts, t.goals.Objective(r.ids, counts, len(r.paths), r.work.Fallback), nil
}

// validate re-estimates q on an independent sample seeded Seed+1.
func (t *Tuner) validate(ctx context.Context, q *quiz.Questionnaire) (*Validation, error) {
	d, err := montecarlo.Sample(ctx, q, t.config.FinalSamples, t.config.Seed+1, t.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	counts := make([]int, len(d.Order))
	for i, id := range d.Order {
		counts[i] = d.Counts[id]
	}
	return &Validation{
		Distribution: d,
		Objective:    t.goals.Objective(d.Order, counts, d.Total, q.Fallback),
	}, nil
}

// #endregion evaluate
