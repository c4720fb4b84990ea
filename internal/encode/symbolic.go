package encode

import (
	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/smt"
)

var ops = [...]smt.Op{
	condition.OpGE: smt.GE,
	condition.OpGT: smt.GT,
	condition.OpLE: smt.LE,
	condition.OpLT: smt.LT,
	condition.OpEQ: smt.EQ,
}

// symbolic interprets conditions over final-score terms. Derived facts are
// built once per encoding and shared by every condition that reads them.
type symbolic struct {
	final []smt.Int
	mode  RankMode

	tops   map[int]smt.Bool
	gap    smt.Int
	total  smt.Int
	spread smt.Int
}

var _ condition.Domain[smt.Int, smt.Bool] = (*symbolic)(nil)

func newSymbolic(final []smt.Int, mode RankMode) *symbolic {
	return &symbolic{final: final, mode: mode, tops: make(map[int]smt.Bool)}
}

func (s *symbolic) NumDims() int                         { return len(s.final) }
func (s *symbolic) Score(d int) smt.Int                  { return s.final[d] }
func (s *symbolic) Lit(v int) smt.Int                    { return smt.Const(v) }
func (s *symbolic) Sum(xs ...smt.Int) smt.Int            { return smt.Sum(xs...) }
func (s *symbolic) Sub(a, b smt.Int) smt.Int             { return smt.Sub(a, b) }
func (s *symbolic) Ite(c smt.Bool, t, e smt.Int) smt.Int { return smt.Ite(c, t, e) }
func (s *symbolic) And(xs ...smt.Bool) smt.Bool          { return smt.And(xs...) }
func (s *symbolic) Or(xs ...smt.Bool) smt.Bool           { return smt.Or(xs...) }
func (s *symbolic) Not(x smt.Bool) smt.Bool              { return smt.Not(x) }
func (s *symbolic) Truth(v bool) smt.Bool                { return smt.BoolConst(v) }

func (s *symbolic) Cmp(op condition.Op, a, b smt.Int) smt.Bool {
	return smt.Cmp(ops[op], a, b)
}

// #region facts
func (s *symbolic) IsTop(d int) smt.Bool {
	if b, ok := s.tops[d]; ok {
		return b
	}
	b := condition.DeriveIsTop[smt.Int, smt.Bool](s, d)
	s.tops[d] = b
	return b
}

func (s *symbolic) TopGap() smt.Int {
	if s.gap == nil {
		s.gap = smt.Def("top_gap", condition.DeriveTopGap[smt.Int, smt.Bool](s))
	}
	return s.gap
}

func (s *symbolic) Total() smt.Int {
	if s.total == nil {
		s.total = smt.Def("total", condition.DeriveTotal[smt.Int, smt.Bool](s))
	}
	return s.total
}

func (s *symbolic) Spread() smt.Int {
	if s.spread == nil {
		s.spread = smt.Def("spread", condition.DeriveSpread[smt.Int, smt.Bool](s))
	}
	return s.spread
}

func (s *symbolic) RankIs(d, rank int) smt.Bool {
	if s.mode == RankRelaxed {
		if rank <= 1 {
			return s.IsTop(d)
		}
		return smt.BoolConst(true)
	}
	return condition.DeriveRank[smt.Int, smt.Bool](s, d, rank)
}

// #endregion facts
