package smt

import (
	"fmt"
	"sort"
)

type nodeKind uint8

const (
	kConst nodeKind = iota
	kVar
	kDef
	kSum
	kSub
	kIte
	kBoolConst
	kCmp
	kAnd
	kOr
	kNot
)

// node is one vertex of the flattened expression DAG. Children always have
// smaller indexes than their parents.
type node struct {
	kind nodeKind
	op   Op
	val  int // literal, or variable lower bound
	hi   int // variable upper bound
	kids []int
	// dep is the highest variable position this node depends on, -1 for constants.
	dep  int
	refs int
	expr any
}

// graph is the DAG reachable from a set of assertions.
type graph struct {
	nodes []node
	roots []int
	vars  []int // node index per variable position
	index map[any]int
}

func buildGraph(assertions []Bool) *graph {
	g := &graph{index: make(map[any]int)}
	var vars []*VarExpr
	for _, a := range assertions {
		g.roots = append(g.roots, g.visit(a, &vars))
	}

	// Variable positions follow creation order.
	sort.Slice(vars, func(i, j int) bool { return vars[i].seq < vars[j].seq })
	pos := make(map[int]int, len(vars))
	for p, v := range vars {
		i := g.index[v]
		g.vars = append(g.vars, i)
		pos[i] = p
	}
	for i := range g.nodes {
		n := &g.nodes[i]
		n.dep = -1
		if n.kind == kVar {
			n.dep = pos[i]
		}
		for _, k := range n.kids {
			n.dep = max(n.dep, g.nodes[k].dep)
			g.nodes[k].refs++
		}
	}
	return g
}

func (g *graph) add(n node, key any) int {
	g.nodes = append(g.nodes, n)
	i := len(g.nodes) - 1
	g.index[key] = i
	return i
}

func (g *graph) visit(x any, vars *[]*VarExpr) int {
	if i, ok := g.index[x]; ok {
		return i
	}
	switch n := x.(type) {
	case *ConstExpr:
		return g.add(node{kind: kConst, val: n.V, expr: n}, x)
	case *VarExpr:
		*vars = append(*vars, n)
		return g.add(node{kind: kVar, val: n.Lo, hi: n.Hi, expr: n}, x)
	case *DefExpr:
		k := g.visit(n.X, vars)
		return g.add(node{kind: kDef, kids: []int{k}, expr: n}, x)
	case *SumExpr:
		kids := make([]int, len(n.Terms))
		for i, t := range n.Terms {
			kids[i] = g.visit(t, vars)
		}
		return g.add(node{kind: kSum, kids: kids, expr: n}, x)
	case *SubExpr:
		a, b := g.visit(n.A, vars), g.visit(n.B, vars)
		return g.add(node{kind: kSub, kids: []int{a, b}, expr: n}, x)
	case *IteExpr:
		c, t, e := g.visit(n.C, vars), g.visit(n.T, vars), g.visit(n.E, vars)
		return g.add(node{kind: kIte, kids: []int{c, t, e}, expr: n}, x)
	case *BoolConstExpr:
		v := 0
		if n.V {
			v = 1
		}
		return g.add(node{kind: kBoolConst, val: v, expr: n}, x)
	case *CmpExpr:
		a, b := g.visit(n.A, vars), g.visit(n.B, vars)
		return g.add(node{kind: kCmp, op: n.Op, kids: []int{a, b}, expr: n}, x)
	case *AndExpr:
		return g.add(node{kind: kAnd, kids: g.visitAll(n.Xs, vars), expr: n}, x)
	case *OrExpr:
		return g.add(node{kind: kOr, kids: g.visitAll(n.Xs, vars), expr: n}, x)
	case *NotExpr:
		k := g.visit(n.X, vars)
		return g.add(node{kind: kNot, kids: []int{k}, expr: n}, x)
	}
	panic(fmt.Sprintf("smt: unknown node %T", x))
}

func (g *graph) visitAll(xs []Bool, vars *[]*VarExpr) []int {
	kids := make([]int, len(xs))
	for i, x := range xs {
		kids[i] = g.visit(x, vars)
	}
	return kids
}

func (g *graph) varExpr(pos int) *VarExpr {
	return g.nodes[g.vars[pos]].expr.(*VarExpr)
}
