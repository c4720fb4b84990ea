package smt

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsFold(t *testing.T) {
	assert.Equal(t, Const(3), Sum(Const(1), Const(2)))
	x := Var("x", 0, 3)
	assert.Same(t, x, Sum(x, Const(0)))
	assert.Equal(t, Const(2), Sub(Const(5), Const(3)))
	assert.Same(t, x, Ite(BoolConst(true), x, Const(1)))
	assert.Equal(t, Const(4), Ite(Cmp(GE, x, Const(1)), Const(4), Const(4)))
	assert.Equal(t, BoolConst(false), And(Cmp(GT, x, Const(0)), BoolConst(false)))
	assert.Equal(t, BoolConst(true), Or(BoolConst(true), Cmp(GT, x, Const(0))))
	assert.Equal(t, BoolConst(true), And())
	assert.Equal(t, BoolConst(false), Or())
	assert.Equal(t, BoolConst(true), Cmp(LT, Const(1), Const(2)))

	c := Cmp(EQ, x, Const(1))
	assert.Same(t, c, Not(Not(c)))
	assert.Equal(t, Const(7), Def("seven", Const(7)))
}

func TestModelEval(t *testing.T) {
	x, y := Var("x", -5, 5), Var("y", 0, 9)
	d := Def("d", Sub(x, y))
	m := Model{"x": 3, "y": 7}
	assert.Equal(t, -4, m.EvalInt(d))
	assert.Equal(t, 4, m.EvalInt(Ite(Cmp(LT, d, Const(0)), Sub(Const(0), d), d)))
	assert.True(t, m.EvalBool(And(Cmp(GT, y, x), Not(Cmp(EQ, x, Const(0))))))
	assert.Equal(t, -5, Model{}.EvalInt(x))
}

func TestSearchSat(t *testing.T) {
	x, y := Var("x", 0, 5), Var("y", 0, 5)
	s := Search{}.NewSolver()
	s.Assert(Cmp(EQ, Sum(x, y), Const(7)), Cmp(GT, x, y))

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, Sat, st)
	m, err := s.Model()
	require.NoError(t, err)
	assert.Equal(t, 7, m["x"]+m["y"])
	assert.Greater(t, m["x"], m["y"])
}

func TestSearchUnsat(t *testing.T) {
	x, y := Var("x", 0, 5), Var("y", 0, 5)
	s := Search{}.NewSolver()
	s.Assert(Cmp(EQ, Sum(x, y), Const(11)))

	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unsat, st)
	_, err = s.Model()
	assert.Error(t, err)
}

func TestSearchNoVariables(t *testing.T) {
	s := Search{}.NewSolver()
	st, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sat, st)

	s.Assert(BoolConst(false))
	st, err = s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Unsat, st)
}

func clamp(x Int) Int {
	return Ite(Cmp(GT, x, Const(6)), Const(6), Ite(Cmp(LT, x, Const(-6)), Const(-6), x))
}

// randomChain builds a clamped accumulation over n choice variables and a
// random predicate on the final values, the shape the encoder produces.
func randomChain(rng *rand.Rand, n int) ([]*VarExpr, Bool) {
	vars := make([]*VarExpr, n)
	a, b := Int(Const(0)), Int(Const(0))
	for i := range vars {
		vars[i] = Var(fmt.Sprintf("c%d", i), 0, 2)
		wa, wb := Int(Const(rng.IntN(7)-3)), Int(Const(rng.IntN(7)-3))
		for k := 1; k < 3; k++ {
			hit := Cmp(EQ, vars[i], Const(k))
			wa = Ite(hit, Const(rng.IntN(7)-3), wa)
			wb = Ite(hit, Const(rng.IntN(7)-3), wb)
		}
		a = Def(fmt.Sprintf("a%d", i+1), clamp(Def(fmt.Sprintf("ra%d", i+1), Sum(a, wa))))
		b = Def(fmt.Sprintf("b%d", i+1), clamp(Def(fmt.Sprintf("rb%d", i+1), Sum(b, wb))))
	}
	preds := []Bool{
		Cmp(GE, a, Const(rng.IntN(13)-6)),
		Cmp(LT, Sub(a, b), Const(rng.IntN(9)-4)),
		Not(Cmp(EQ, b, Const(rng.IntN(5)-2))),
	}
	return vars, And(preds[rng.IntN(3)], preds[rng.IntN(3)], Or(preds[0], preds[2]))
}

func bruteForce(vars []*VarExpr, b Bool) bool {
	n := len(vars)
	total := 1
	for range n {
		total *= 3
	}
	for code := range total {
		m := Model{}
		c := code
		for _, v := range vars {
			m[v.Name] = c % 3
			c /= 3
		}
		if m.EvalBool(b) {
			return true
		}
	}
	return false
}

func TestSearchAgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 23))
	for trial := range 200 {
		vars, pred := randomChain(rng, 2+trial%5)
		s := Search{}.NewSolver()
		s.Assert(pred)
		st, err := s.Check(context.Background())
		require.NoError(t, err)

		want := bruteForce(vars, pred)
		require.Equal(t, want, st == Sat, "trial %d", trial)
		if st == Sat {
			m, err := s.Model()
			require.NoError(t, err)
			require.Len(t, m, len(vars))
			require.True(t, m.EvalBool(pred), "trial %d model %v", trial, m)
		}
	}
}

func TestScript(t *testing.T) {
	x := Var("x", -2, 3)
	d := Def("shifted", Sum(x, Const(-3)))
	script := Script(Cmp(GE, d, Const(-1)), Cmp(LE, d, Const(0)))

	assert.Contains(t, script, "(declare-fun |x| () Int)")
	assert.Contains(t, script, "(assert (and (>= |x| (- 2)) (<= |x| 3)))")
	assert.Contains(t, script, "(define-fun |shifted| () Int (+ |x| (- 3)))")
	assert.Contains(t, script, "(assert (>= |shifted| (- 1)))")
	assert.Contains(t, script, "(check-sat)")
	assert.True(t, strings.HasSuffix(script, "(get-value (|x|))\n"))
}

func TestParseResponse(t *testing.T) {
	st, vals, err := parseResponse(strings.NewReader("sat\n((|c0| 2)\n (c1 (- 3)))\n"))
	require.NoError(t, err)
	assert.Equal(t, Sat, st)
	assert.Equal(t, map[string]int{"c0": 2, "c1": -3}, vals)

	st, _, err = parseResponse(strings.NewReader("unsat\n(error \"model is not available\")\n"))
	require.NoError(t, err)
	assert.Equal(t, Unsat, st)

	st, _, err = parseResponse(strings.NewReader("unknown\n"))
	require.NoError(t, err)
	assert.Equal(t, Unknown, st)

	_, _, err = parseResponse(strings.NewReader("(error \"boom\")"))
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	b, err := Lookup("", "")
	require.NoError(t, err)
	assert.Equal(t, BackendSearch, b.Name())

	_, err = Lookup("cvc-nothing", "")
	assert.ErrorIs(t, err, ErrSolverUnavailable)

	_, err = Lookup(BackendSMTLib, "no-such-solver-binary-xyz")
	assert.ErrorIs(t, err, ErrSolverUnavailable)
}

func TestSMTLibAgainstInstalledZ3(t *testing.T) {
	if _, err := exec.LookPath("z3"); err != nil {
		t.Skip("z3 not installed")
	}
	b, err := Lookup(BackendSMTLib, "")
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(5, 8))
	for trial := range 20 {
		vars, pred := randomChain(rng, 3)
		s := b.NewSolver()
		s.Assert(pred)
		st, err := s.Check(context.Background())
		require.NoError(t, err)
		require.Equal(t, bruteForce(vars, pred), st == Sat, "trial %d", trial)
		if st == Sat {
			m, err := s.Model()
			require.NoError(t, err)
			require.True(t, m.EvalBool(pred))
		}
	}
}
