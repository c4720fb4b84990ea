package smt

import (
	"context"
	"encoding/binary"
)

// Search is the built-in backend. It enumerates variables depth-first in
// creation order, pruning with interval evaluation, and remembers refuted
// frontier states: once every node that depends only on assigned variables is
// known, the rest of the search depends only on the values of those nodes
// that feed still-open ones, so an identical frontier needs no second visit.
// It is exact for the bounded problems it accepts and never answers Unknown
// except on cancellation.
type Search struct{}

// Name implements Backend.
func (Search) Name() string { return BackendSearch }

// NewSolver implements Backend.
func (Search) NewSolver() Solver { return &searchSolver{} }

type searchSolver struct {
	assertions []Bool
	model      Model
}

func (s *searchSolver) Assert(bs ...Bool) {
	s.assertions = append(s.assertions, bs...)
}

func (s *searchSolver) Model() (Model, error) {
	if s.model == nil {
		return nil, errNoModel
	}
	return s.model, nil
}

// cancellation is polled once per this many visited states.
const searchPoll = 4096

func (s *searchSolver) Check(ctx context.Context) (Status, error) {
	s.model = nil
	st := newSearchState(buildGraph(s.assertions))
	found, err := st.dfs(ctx, 0)
	if err != nil {
		return Unknown, err
	}
	if !found {
		return Unsat, nil
	}
	m := make(Model, len(st.g.vars))
	for p, v := range st.assigned {
		m[st.g.varExpr(p).Name] = v
	}
	s.model = m
	return Sat, nil
}

// #region state
type searchState struct {
	g        *graph
	lo, hi   []int
	assigned []int
	depth    int // number of assigned variables
	// recompute[p] lists, in order, the nodes whose value may change when
	// variable p is assigned.
	recompute [][]int
	// frontier[k] lists the settled nodes that feed open ones at depth k.
	frontier [][]int
	refuted  []map[string]struct{}
	visits   int
	key      []byte
}

func newSearchState(g *graph) *searchState {
	n, nv := len(g.nodes), len(g.vars)
	st := &searchState{
		g:         g,
		lo:        make([]int, n),
		hi:        make([]int, n),
		assigned:  make([]int, nv),
		recompute: make([][]int, nv),
		frontier:  make([][]int, nv+1),
		refuted:   make([]map[string]struct{}, nv+1),
	}
	for i, nd := range g.nodes {
		for p := 0; p <= nd.dep && p < nv; p++ {
			st.recompute[p] = append(st.recompute[p], i)
		}
	}
	for k := 0; k <= nv; k++ {
		st.refuted[k] = make(map[string]struct{})
	}
	for _, nd := range g.nodes {
		for _, c := range nd.kids {
			child := g.nodes[c]
			// A settled child of an open parent is on every frontier
			// between the two dependency depths.
			for k := child.dep + 1; k <= nd.dep && k <= nv; k++ {
				if child.dep >= 0 && !contains(st.frontier[k], c) {
					st.frontier[k] = append(st.frontier[k], c)
				}
			}
		}
	}
	for i := range g.nodes {
		st.eval(i)
	}
	return st
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// #endregion state

// #region dfs
func (st *searchState) dfs(ctx context.Context, k int) (bool, error) {
	st.visits++
	if st.visits%searchPoll == 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}

	allTrue := true
	for _, r := range st.g.roots {
		if st.hi[r] == 0 {
			return false, nil
		}
		if st.lo[r] == 0 {
			allTrue = false
		}
	}
	if allTrue {
		// Every completion satisfies the assertions; take lower bounds.
		for p := k; p < len(st.assigned); p++ {
			st.assigned[p] = st.g.varExpr(p).Lo
		}
		return true, nil
	}
	if k == len(st.assigned) {
		return false, nil
	}

	key := st.frontierKey(k)
	if _, seen := st.refuted[k][key]; seen {
		return false, nil
	}

	v := st.g.varExpr(k)
	for x := v.Lo; x <= v.Hi; x++ {
		st.assigned[k] = x
		st.depth = k + 1
		for _, i := range st.recompute[k] {
			st.eval(i)
		}
		found, err := st.dfs(ctx, k+1)
		if err != nil || found {
			return found, err
		}
	}
	// Intervals are stale here; the caller re-evaluates before reading them.
	st.refuted[k][key] = struct{}{}
	return false, nil
}

func (st *searchState) frontierKey(k int) string {
	st.key = st.key[:0]
	for _, i := range st.frontier[k] {
		st.key = binary.AppendVarint(st.key, int64(st.lo[i]))
	}
	return string(st.key)
}

// #endregion dfs

// #region intervals
// eval recomputes the interval of node i from its children. Booleans use
// [0,0] for false, [1,1] for true and [0,1] for undecided.
func (st *searchState) eval(i int) {
	nd := &st.g.nodes[i]
	lo, hi := st.lo, st.hi
	switch nd.kind {
	case kConst, kBoolConst:
		lo[i], hi[i] = nd.val, nd.val
	case kVar:
		p := nd.dep
		if p < st.depth {
			lo[i], hi[i] = st.assigned[p], st.assigned[p]
		} else {
			lo[i], hi[i] = nd.val, nd.hi
		}
	case kDef:
		lo[i], hi[i] = lo[nd.kids[0]], hi[nd.kids[0]]
	case kSum:
		l, h := 0, 0
		for _, c := range nd.kids {
			l += lo[c]
			h += hi[c]
		}
		lo[i], hi[i] = l, h
	case kSub:
		a, b := nd.kids[0], nd.kids[1]
		lo[i], hi[i] = lo[a]-hi[b], hi[a]-lo[b]
	case kIte:
		c, t, e := nd.kids[0], nd.kids[1], nd.kids[2]
		switch {
		case lo[c] == 1:
			lo[i], hi[i] = lo[t], hi[t]
		case hi[c] == 0:
			lo[i], hi[i] = lo[e], hi[e]
		default:
			lo[i], hi[i] = min(lo[t], lo[e]), max(hi[t], hi[e])
		}
	case kCmp:
		lo[i], hi[i] = cmpInterval(nd.op, lo[nd.kids[0]], hi[nd.kids[0]], lo[nd.kids[1]], hi[nd.kids[1]])
	case kAnd:
		l, h := 1, 1
		for _, c := range nd.kids {
			l = min(l, lo[c])
			h = min(h, hi[c])
		}
		lo[i], hi[i] = l, h
	case kOr:
		l, h := 0, 0
		for _, c := range nd.kids {
			l = max(l, lo[c])
			h = max(h, hi[c])
		}
		lo[i], hi[i] = l, h
	case kNot:
		c := nd.kids[0]
		lo[i], hi[i] = 1-hi[c], 1-lo[c]
	}
}

func cmpInterval(op Op, al, ah, bl, bh int) (int, int) {
	var yes, no bool
	switch op {
	case GE:
		yes, no = al >= bh, ah < bl
	case GT:
		yes, no = al > bh, ah <= bl
	case LE:
		yes, no = ah <= bl, al > bh
	case LT:
		yes, no = ah < bl, al >= bh
	case EQ:
		yes, no = al == ah && bl == bh && al == bl, ah < bl || bh < al
	}
	switch {
	case yes:
		return 1, 1
	case no:
		return 0, 0
	}
	return 0, 1
}

// #endregion intervals
