package condition

// Domain is the algebra a condition is interpreted in. I is the integer term
// type and B the boolean term type. The concrete domain computes values
// directly; the symbolic domain builds solver expressions.
type Domain[I, B any] interface {
	// NumDims is the length of the score vector.
	NumDims() int
	// Score is the final score of dimension d.
	Score(d int) I
	Lit(v int) I
	Sum(xs ...I) I
	Sub(a, b I) I
	Ite(c B, then, els I) I
	Cmp(op Op, a, b I) B
	And(xs ...B) B
	Or(xs ...B) B
	Not(x B) B
	Truth(v bool) B
}

// Domains may short-circuit any derived fact by implementing the matching
// method; otherwise the Derive* construction is used.
type (
	topFact[B any] interface{ IsTop(d int) B }
	gapFact[I any] interface{ TopGap() I }
	totalFact[I any] interface{ Total() I }
	spreadFact[I any] interface{ Spread() I }
	rankFact[B any] interface{ RankIs(d, rank int) B }
)

// #region derived-facts
// DeriveIsTop holds when d is the highest dimension with ties going to the
// lowest index: strictly above every lower-index dimension and at least equal
// to every higher-index one.
func DeriveIsTop[I, B any](dom Domain[I, B], d int) B {
	s := dom.Score(d)
	checks := make([]B, 0, dom.NumDims()-1)
	for j := 0; j < dom.NumDims(); j++ {
		switch {
		case j < d:
			checks = append(checks, dom.Cmp(OpGT, s, dom.Score(j)))
		case j > d:
			checks = append(checks, dom.Cmp(OpGE, s, dom.Score(j)))
		}
	}
	return dom.And(checks...)
}

// DeriveSecondFor is the highest score among the dimensions other than d.
// With a single dimension it is the score of d itself.
func DeriveSecondFor[I, B any](dom Domain[I, B], d int) I {
	var best I
	found := false
	for j := 0; j < dom.NumDims(); j++ {
		if j == d {
			continue
		}
		s := dom.Score(j)
		if !found {
			best, found = s, true
			continue
		}
		best = dom.Ite(dom.Cmp(OpGT, s, best), s, best)
	}
	if !found {
		return dom.Score(d)
	}
	return best
}

// DeriveTopGap is top value minus second value.
func DeriveTopGap[I, B any](dom Domain[I, B]) I {
	n := dom.NumDims()
	last := n - 1
	gap := dom.Sub(dom.Score(last), DeriveSecondFor(dom, last))
	for d := last - 1; d >= 0; d-- {
		gap = dom.Ite(isTop(dom, d), dom.Sub(dom.Score(d), DeriveSecondFor(dom, d)), gap)
	}
	return gap
}

// DeriveTotal sums every dimension.
func DeriveTotal[I, B any](dom Domain[I, B]) I {
	all := make([]int, dom.NumDims())
	for i := range all {
		all[i] = i
	}
	return SumOf(dom, all)
}

// DeriveSpread is max minus min over all dimensions.
func DeriveSpread[I, B any](dom Domain[I, B]) I {
	hi, lo := dom.Score(0), dom.Score(0)
	for j := 1; j < dom.NumDims(); j++ {
		s := dom.Score(j)
		hi = dom.Ite(dom.Cmp(OpGT, s, hi), s, hi)
		lo = dom.Ite(dom.Cmp(OpLT, s, lo), s, lo)
	}
	return dom.Sub(hi, lo)
}

// DeriveRank holds when d sits at the 1-based rank in a descending sort that
// is stable in declaration order: exactly rank-1 dimensions sort ahead of it.
func DeriveRank[I, B any](dom Domain[I, B], d, rank int) B {
	rank = max(1, rank)
	if rank > dom.NumDims() {
		return dom.Truth(false)
	}
	s := dom.Score(d)
	one, zero := dom.Lit(1), dom.Lit(0)
	ahead := make([]I, 0, dom.NumDims()-1)
	for j := 0; j < dom.NumDims(); j++ {
		if j == d {
			continue
		}
		op := OpGT
		if j < d {
			op = OpGE
		}
		ahead = append(ahead, dom.Ite(dom.Cmp(op, dom.Score(j), s), one, zero))
	}
	return dom.Cmp(OpEQ, dom.Sum(ahead...), dom.Lit(rank-1))
}

// SumOf adds the scores of the listed dimensions; an empty list sums to 0.
func SumOf[I, B any](dom Domain[I, B], dims []int) I {
	if len(dims) == 0 {
		return dom.Lit(0)
	}
	terms := make([]I, len(dims))
	for i, d := range dims {
		terms[i] = dom.Score(d)
	}
	return dom.Sum(terms...)
}

// Abs is |x|.
func Abs[I, B any](dom Domain[I, B], x I) I {
	zero := dom.Lit(0)
	return dom.Ite(dom.Cmp(OpGE, x, zero), x, dom.Sub(zero, x))
}

// #endregion derived-facts

// #region dispatch
func isTop[I, B any](dom Domain[I, B], d int) B {
	if f, ok := any(dom).(topFact[B]); ok {
		return f.IsTop(d)
	}
	return DeriveIsTop(dom, d)
}

func topGap[I, B any](dom Domain[I, B]) I {
	if f, ok := any(dom).(gapFact[I]); ok {
		return f.TopGap()
	}
	return DeriveTopGap(dom)
}

func total[I, B any](dom Domain[I, B]) I {
	if f, ok := any(dom).(totalFact[I]); ok {
		return f.Total()
	}
	return DeriveTotal(dom)
}

func spread[I, B any](dom Domain[I, B]) I {
	if f, ok := any(dom).(spreadFact[I]); ok {
		return f.Spread()
	}
	return DeriveSpread(dom)
}

func rankIs[I, B any](dom Domain[I, B], d, rank int) B {
	if f, ok := any(dom).(rankFact[B]); ok {
		return f.RankIs(d, rank)
	}
	return DeriveRank(dom, d, rank)
}

// #endregion dispatch
