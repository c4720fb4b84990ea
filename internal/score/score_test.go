package score

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0}, {20, 20}, {21, 20}, {-20, -20}, {-35, -20}, {7, 7},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Clamp(c.in), "Clamp(%d)", c.in)
	}
}

func TestAccumulateDoesNotMutateInput(t *testing.T) {
	v := Vector{19, -19, 0}
	out := Accumulate(v, []int{5, -5, 3})
	assert.Equal(t, Vector{20, -20, 3}, out)
	assert.Equal(t, Vector{19, -19, 0}, v)
}

func TestSaturationMakesOrderObservable(t *testing.T) {
	m := Matrix{
		{{15}},
		{{15}},
		{{-10}},
	}
	// 15 -> 20 (clamped) -> 10, not 20.
	assert.Equal(t, Vector{10}, m.Final([]int{0, 0, 0}))

	reordered := Matrix{m[2], m[0], m[1]}
	assert.Equal(t, Vector{20}, reordered.Final([]int{0, 0, 0}))
}

func TestClampInvariantOnRandomPaths(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const questions, options, dims = 12, 4, 5
	m := make(Matrix, questions)
	for q := range m {
		m[q] = make([][]int, options)
		for o := range m[q] {
			m[q][o] = make([]int, dims)
			for d := range m[q][o] {
				m[q][o][d] = rng.IntN(31) - 15
			}
		}
	}

	path := make([]int, questions)
	for range 500 {
		for q := range path {
			path[q] = rng.IntN(options)
		}
		v := Vector(make([]int, dims))
		for q, o := range path {
			v = Accumulate(v, m[q][o])
			for _, s := range v {
				require.GreaterOrEqual(t, s, Lo)
				require.LessOrEqual(t, s, Hi)
			}
		}
		assert.Equal(t, v, m.Final(path))
	}
}

func TestDerive(t *testing.T) {
	cases := []struct {
		name string
		v    Vector
		want Facts
	}{
		{"distinct", Vector{3, 9, -2}, Facts{Top: 1, TopValue: 9, Second: 3, Total: 10, Spread: 11}},
		{"tie goes to lower index", Vector{5, 5, 1}, Facts{Top: 0, TopValue: 5, Second: 5, Total: 11, Spread: 4}},
		{"single dimension", Vector{-4}, Facts{Top: 0, TopValue: -4, Second: -4, Total: -4, Spread: 0}},
		{"all equal", Vector{0, 0, 0}, Facts{Top: 0, TopValue: 0, Second: 0, Total: 0, Spread: 0}},
		{"top last", Vector{-1, -3, 2}, Facts{Top: 2, TopValue: 2, Second: -1, Total: -2, Spread: 5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Derive(c.v))
		})
	}
}

func TestProfileIntoReusesBuffers(t *testing.T) {
	m := Matrix{{{1, 2}, {3, 4}}}
	p := m.Profile([]int{0})
	buf := &p.Scores[0]

	m.ProfileInto(p, []int{1})
	assert.Equal(t, Vector{3, 4}, p.Scores)
	assert.Same(t, buf, &p.Scores[0])
	assert.Equal(t, 1, p.Top)
}
