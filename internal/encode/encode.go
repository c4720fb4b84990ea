package encode

import (
	"fmt"

	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/score"
	"github.com/danielpatrickdp/quiz-calibrator/internal/smt"
)

// RankMode selects how rank_is is expressed symbolically.
type RankMode int

const (
	// RankExact counts the dimensions that sort ahead of the target, matching
	// the concrete evaluator at every rank.
	RankExact RankMode = iota
	// RankRelaxed is exact at rank 1 and treats every other rank as true.
	RankRelaxed
)

// ParseRankMode accepts "exact" and "relaxed".
func ParseRankMode(s string) (RankMode, error) {
	switch s {
	case "", "exact":
		return RankExact, nil
	case "relaxed":
		return RankRelaxed, nil
	}
	return RankExact, fmt.Errorf("unknown rank mode %q", s)
}

func (m RankMode) String() string {
	if m == RankRelaxed {
		return "relaxed"
	}
	return "exact"
}

// Encoding is the symbolic form of a questionnaire: one choice variable per
// question, the clamped score chain, and a match expression per result.
// It is immutable once built and safe to share between solvers.
type Encoding struct {
	Choices    []*smt.VarExpr
	Final      []smt.Int
	Match      []smt.Bool
	IDs        []string
	Priorities []int
}

// Build encodes q. It never mutates q.
func Build(q *quiz.Questionnaire, mode RankMode) (*Encoding, error) {
	compiled, err := q.Compile()
	if err != nil {
		return nil, err
	}
	e := &Encoding{
		IDs:        q.ResultIDs(),
		Priorities: make([]int, len(q.Results)),
		Match:      make([]smt.Bool, len(q.Results)),
	}
	for i, r := range q.Results {
		e.Priorities[i] = r.Priority
	}
	e.Choices, e.Final = chain(q.Matrix(), q.DimIDs())

	dom := newSymbolic(e.Final, mode)
	for i, conds := range compiled {
		e.Match[i] = condition.Matches[smt.Int, smt.Bool](dom, conds)
	}
	return e, nil
}

// #region chain
// chain links s[q+1][d] = clamp(s[q][d] + w) where w selects the weight of the
// chosen option. Static bounds drop clamp branches that cannot fire.
func chain(m score.Matrix, dims []string) ([]*smt.VarExpr, []smt.Int) {
	choices := make([]*smt.VarExpr, len(m))
	cur := make([]smt.Int, len(dims))
	lo := make([]int, len(dims))
	hi := make([]int, len(dims))
	for d := range cur {
		cur[d] = smt.Const(0)
	}

	for q, opts := range m {
		c := smt.Var(fmt.Sprintf("c%d", q), 0, len(opts)-1)
		choices[q] = c
		for d, name := range dims {
			w := smt.Const(opts[0][d])
			wlo, whi := opts[0][d], opts[0][d]
			for k := 1; k < len(opts); k++ {
				w = smt.Ite(smt.Cmp(smt.EQ, c, smt.Const(k)), smt.Const(opts[k][d]), w)
				wlo, whi = min(wlo, opts[k][d]), max(whi, opts[k][d])
			}
			raw := smt.Def(fmt.Sprintf("r%d_%s", q+1, name), smt.Sum(cur[d], w))
			rlo, rhi := lo[d]+wlo, hi[d]+whi
			cur[d] = smt.Def(fmt.Sprintf("s%d_%s", q+1, name), clamp(raw, rlo, rhi))
			lo[d], hi[d] = score.Clamp(rlo), score.Clamp(rhi)
		}
	}
	return choices, cur
}

func clamp(x smt.Int, lo, hi int) smt.Int {
	if lo < score.Lo {
		x = smt.Ite(smt.Cmp(smt.LT, x, smt.Const(score.Lo)), smt.Const(score.Lo), x)
	}
	if hi > score.Hi {
		x = smt.Ite(smt.Cmp(smt.GT, x, smt.Const(score.Hi)), smt.Const(score.Hi), x)
	}
	return x
}

// #endregion chain

// Witness reads the chosen option of every question from a model.
func (e *Encoding) Witness(m smt.Model) []int {
	path := make([]int, len(e.Choices))
	for q, c := range e.Choices {
		path[q] = m[c.Name]
	}
	return path
}

// Outranks reports whether result a beats result b when both match.
func (e *Encoding) Outranks(a, b int) bool {
	if e.Priorities[a] != e.Priorities[b] {
		return e.Priorities[a] > e.Priorities[b]
	}
	return a < b
}

// Wins is the condition under which result i is the resolver's choice: it
// matches and no result that outranks it does.
func (e *Encoding) Wins(i int) []smt.Bool {
	out := []smt.Bool{e.Match[i]}
	for j := range e.Match {
		if j != i && e.Outranks(j, i) {
			out = append(out, smt.Not(e.Match[j]))
		}
	}
	return out
}
