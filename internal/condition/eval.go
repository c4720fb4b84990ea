package condition

import "fmt"

// Eval interprets one compiled condition in dom.
func Eval[I, B any](dom Domain[I, B], c Compiled) B {
	switch c.Kind {
	case KindRange:
		s := dom.Score(c.Dim)
		if !c.HasMin && !c.HasMax {
			return dom.Cmp(c.Op, s, dom.Lit(c.Value))
		}
		parts := make([]B, 0, 2)
		if c.HasMin {
			parts = append(parts, dom.Cmp(OpGE, s, dom.Lit(c.Min)))
		}
		if c.HasMax {
			parts = append(parts, dom.Cmp(OpLE, s, dom.Lit(c.Max)))
		}
		return dom.And(parts...)
	case KindMin, KindMaxGE:
		return dom.Cmp(OpGE, dom.Score(c.Dim), dom.Lit(c.Value))
	case KindMaxLE:
		return dom.Cmp(OpLE, dom.Score(c.Dim), dom.Lit(c.Value))
	case KindDiffGreater:
		return dom.Cmp(OpGT, dom.Score(c.A), dom.Sum(dom.Score(c.B), dom.Lit(c.Value)))
	case KindDiffAbsLTE:
		return dom.Cmp(OpLE, Abs(dom, dom.Sub(dom.Score(c.A), dom.Score(c.B))), dom.Lit(c.Value))
	case KindTopIs:
		return isTop(dom, c.Dim)
	case KindNotTopIs:
		return dom.Not(isTop(dom, c.Dim))
	case KindRankIs:
		return rankIs(dom, c.Dim, c.Rank)
	case KindTopDiffGTE:
		return dom.Cmp(OpGE, topGap(dom), dom.Lit(c.Value))
	case KindTopDiffLTE:
		return dom.Cmp(OpLE, topGap(dom), dom.Lit(c.Value))
	case KindTotalMin:
		return dom.Cmp(OpGE, total(dom), dom.Lit(c.Value))
	case KindTotalMax:
		return dom.Cmp(OpLE, total(dom), dom.Lit(c.Value))
	case KindSumMin:
		return dom.Cmp(OpGE, SumOf(dom, c.Dims), dom.Lit(c.Value))
	case KindSumMax:
		return dom.Cmp(OpLE, SumOf(dom, c.Dims), dom.Lit(c.Value))
	case KindSpreadBetween:
		sp := spread(dom)
		return dom.And(dom.Cmp(OpGE, sp, dom.Lit(c.Min)), dom.Cmp(OpLE, sp, dom.Lit(c.Max)))
	}
	panic(fmt.Sprintf("condition: kind %q has no semantics", c.Kind))
}

// Matches is the conjunction of conds in dom; an empty list is true.
func Matches[I, B any](dom Domain[I, B], conds []Compiled) B {
	if len(conds) == 0 {
		return dom.Truth(true)
	}
	parts := make([]B, len(conds))
	for i, c := range conds {
		parts[i] = Eval(dom, c)
	}
	return dom.And(parts...)
}
