package smt

import (
	"fmt"
	"sync/atomic"
)

// Int is an integer-valued expression.
type Int interface {
	intExpr()
}

// Bool is a boolean-valued expression.
type Bool interface {
	boolExpr()
}

// Op is an integer comparison.
type Op uint8

const (
	GE Op = iota
	GT
	LE
	LT
	EQ
)

func (o Op) String() string {
	return [...]string{">=", ">", "<=", "<", "="}[o]
}

func (o Op) holds(a, b int) bool {
	switch o {
	case GT:
		return a > b
	case LE:
		return a <= b
	case LT:
		return a < b
	case EQ:
		return a == b
	}
	return a >= b
}

// #region int-nodes
type (
	// ConstExpr is an integer literal.
	ConstExpr struct{ V int }
	// VarExpr is a decision variable ranging over [Lo, Hi].
	VarExpr struct {
		Name   string
		Lo, Hi int
		seq    uint64
	}
	// DefExpr names a subexpression that is shared by several parents.
	DefExpr struct {
		Name string
		X    Int
	}
	SumExpr struct{ Terms []Int }
	SubExpr struct{ A, B Int }
	IteExpr struct {
		C    Bool
		T, E Int
	}
)

func (*ConstExpr) intExpr() {}
func (*VarExpr) intExpr()   {}
func (*DefExpr) intExpr()   {}
func (*SumExpr) intExpr()   {}
func (*SubExpr) intExpr()   {}
func (*IteExpr) intExpr()   {}

// #endregion int-nodes

// #region bool-nodes
type (
	BoolConstExpr struct{ V bool }
	CmpExpr       struct {
		Op   Op
		A, B Int
	}
	AndExpr struct{ Xs []Bool }
	OrExpr  struct{ Xs []Bool }
	NotExpr struct{ X Bool }
)

func (*BoolConstExpr) boolExpr() {}
func (*CmpExpr) boolExpr()       {}
func (*AndExpr) boolExpr()       {}
func (*OrExpr) boolExpr()        {}
func (*NotExpr) boolExpr()       {}

// #endregion bool-nodes

// #region constructors
// The constructors fold constants so that encodings built from mostly-zero
// weight tables stay small.

var (
	trueExpr  = &BoolConstExpr{V: true}
	falseExpr = &BoolConstExpr{V: false}
	varSeq    atomic.Uint64
)

// Const returns the literal v.
func Const(v int) Int { return &ConstExpr{V: v} }

// Var declares a decision variable. Variables are searched in creation order.
func Var(name string, lo, hi int) *VarExpr {
	if lo > hi {
		panic(fmt.Sprintf("smt: empty domain for %s: [%d, %d]", name, lo, hi))
	}
	return &VarExpr{Name: name, Lo: lo, Hi: hi, seq: varSeq.Add(1)}
}

// Def names x. Constants are returned unwrapped.
func Def(name string, x Int) Int {
	if _, ok := x.(*ConstExpr); ok {
		return x
	}
	return &DefExpr{Name: name, X: x}
}

// BoolConst returns the literal v.
func BoolConst(v bool) Bool {
	if v {
		return trueExpr
	}
	return falseExpr
}

func constOf(x Int) (int, bool) {
	if c, ok := x.(*ConstExpr); ok {
		return c.V, true
	}
	return 0, false
}

func boolOf(b Bool) (bool, bool) {
	if c, ok := b.(*BoolConstExpr); ok {
		return c.V, true
	}
	return false, false
}

// Sum adds terms. Literal terms are folded into one.
func Sum(terms ...Int) Int {
	k := 0
	var rest []Int
	for _, t := range terms {
		if v, ok := constOf(t); ok {
			k += v
			continue
		}
		rest = append(rest, t)
	}
	switch {
	case len(rest) == 0:
		return Const(k)
	case len(rest) == 1 && k == 0:
		return rest[0]
	}
	if k != 0 {
		rest = append(rest, Const(k))
	}
	return &SumExpr{Terms: rest}
}

// Sub is a - b.
func Sub(a, b Int) Int {
	av, aok := constOf(a)
	bv, bok := constOf(b)
	switch {
	case aok && bok:
		return Const(av - bv)
	case bok && bv == 0:
		return a
	}
	return &SubExpr{A: a, B: b}
}

// Ite is "if c then t else e".
func Ite(c Bool, t, e Int) Int {
	if v, ok := boolOf(c); ok {
		if v {
			return t
		}
		return e
	}
	if t == e {
		return t
	}
	tv, tok := constOf(t)
	ev, eok := constOf(e)
	if tok && eok && tv == ev {
		return t
	}
	return &IteExpr{C: c, T: t, E: e}
}

// Cmp compares a and b.
func Cmp(op Op, a, b Int) Bool {
	av, aok := constOf(a)
	bv, bok := constOf(b)
	if aok && bok {
		return BoolConst(op.holds(av, bv))
	}
	return &CmpExpr{Op: op, A: a, B: b}
}

// And is the conjunction of xs; empty is true.
func And(xs ...Bool) Bool {
	var rest []Bool
	for _, x := range xs {
		if v, ok := boolOf(x); ok {
			if !v {
				return falseExpr
			}
			continue
		}
		rest = append(rest, x)
	}
	switch len(rest) {
	case 0:
		return trueExpr
	case 1:
		return rest[0]
	}
	return &AndExpr{Xs: rest}
}

// Or is the disjunction of xs; empty is false.
func Or(xs ...Bool) Bool {
	var rest []Bool
	for _, x := range xs {
		if v, ok := boolOf(x); ok {
			if v {
				return trueExpr
			}
			continue
		}
		rest = append(rest, x)
	}
	switch len(rest) {
	case 0:
		return falseExpr
	case 1:
		return rest[0]
	}
	return &OrExpr{Xs: rest}
}

// Not negates x.
func Not(x Bool) Bool {
	if v, ok := boolOf(x); ok {
		return BoolConst(!v)
	}
	if n, ok := x.(*NotExpr); ok {
		return n.X
	}
	return &NotExpr{X: x}
}

// #endregion constructors

// #region eval
// Model assigns a value to every decision variable, by name.
type Model map[string]int

// EvalInt computes x under m. Variables missing from m evaluate to their lower bound.
func (m Model) EvalInt(x Int) int {
	e := evaluator{m: m, memo: make(map[Int]int)}
	return e.int(x)
}

// EvalBool computes b under m.
func (m Model) EvalBool(b Bool) bool {
	e := evaluator{m: m, memo: make(map[Int]int)}
	return e.bool(b)
}

// evaluator memoizes composite nodes; encodings share subexpressions heavily.
type evaluator struct {
	m    Model
	memo map[Int]int
}

func (e *evaluator) int(x Int) int {
	switch n := x.(type) {
	case *ConstExpr:
		return n.V
	case *VarExpr:
		if v, ok := e.m[n.Name]; ok {
			return v
		}
		return n.Lo
	}
	if v, ok := e.memo[x]; ok {
		return v
	}
	v := e.compute(x)
	e.memo[x] = v
	return v
}

func (e *evaluator) compute(x Int) int {
	switch n := x.(type) {
	case *DefExpr:
		return e.int(n.X)
	case *SumExpr:
		t := 0
		for _, term := range n.Terms {
			t += e.int(term)
		}
		return t
	case *SubExpr:
		return e.int(n.A) - e.int(n.B)
	case *IteExpr:
		if e.bool(n.C) {
			return e.int(n.T)
		}
		return e.int(n.E)
	}
	panic(fmt.Sprintf("smt: unknown int node %T", x))
}

func (e *evaluator) bool(b Bool) bool {
	switch n := b.(type) {
	case *BoolConstExpr:
		return n.V
	case *CmpExpr:
		return n.Op.holds(e.int(n.A), e.int(n.B))
	case *AndExpr:
		for _, x := range n.Xs {
			if !e.bool(x) {
				return false
			}
		}
		return true
	case *OrExpr:
		for _, x := range n.Xs {
			if e.bool(x) {
				return true
			}
		}
		return false
	case *NotExpr:
		return !e.bool(n.X)
	}
	panic(fmt.Sprintf("smt: unknown bool node %T", b))
}

// #endregion eval
