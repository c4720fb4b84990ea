package condition

import "github.com/danielpatrickdp/quiz-calibrator/internal/score"

// Concrete interprets conditions over a computed profile. Derived facts are
// read from the profile's cache instead of being rebuilt from scores.
type Concrete struct {
	P *score.Profile
}

var _ Domain[int, bool] = Concrete{}

func (c Concrete) NumDims() int      { return len(c.P.Scores) }
func (c Concrete) Score(d int) int   { return c.P.Scores[d] }
func (c Concrete) Lit(v int) int     { return v }
func (c Concrete) Sub(a, b int) int  { return a - b }
func (c Concrete) Not(x bool) bool   { return !x }
func (c Concrete) Truth(v bool) bool { return v }

func (c Concrete) Sum(xs ...int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}

func (c Concrete) Ite(cond bool, then, els int) int {
	if cond {
		return then
	}
	return els
}

func (c Concrete) Cmp(op Op, a, b int) bool {
	switch op {
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpLT:
		return a < b
	case OpEQ:
		return a == b
	}
	return a >= b
}

func (c Concrete) And(xs ...bool) bool {
	for _, x := range xs {
		if !x {
			return false
		}
	}
	return true
}

func (c Concrete) Or(xs ...bool) bool {
	for _, x := range xs {
		if x {
			return true
		}
	}
	return false
}

// #region fast-paths
func (c Concrete) IsTop(d int) bool { return c.P.Top == d }
func (c Concrete) TopGap() int      { return c.P.TopValue - c.P.Second }
func (c Concrete) Total() int       { return c.P.Total }
func (c Concrete) Spread() int      { return c.P.Spread }

// RankIs counts the dimensions that sort ahead of d instead of sorting.
func (c Concrete) RankIs(d, rank int) bool {
	rank = max(1, rank)
	if rank > len(c.P.Scores) {
		return false
	}
	s := c.P.Scores[d]
	ahead := 0
	for j, o := range c.P.Scores {
		if o > s || (o == s && j < d) {
			ahead++
		}
	}
	return ahead == rank-1
}

// #endregion fast-paths

// Holds evaluates conds over p, stopping at the first failure.
func Holds(p *score.Profile, conds []Compiled) bool {
	dom := Concrete{P: p}
	for _, c := range conds {
		if !Eval[int, bool](dom, c) {
			return false
		}
	}
	return true
}
