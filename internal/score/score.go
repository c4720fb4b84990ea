package score

// Every score component stays inside [Lo, Hi] after each question.
const (
	Lo = -20
	Hi = 20
)

// Clamp restricts v to [Lo, Hi].
func Clamp(v int) int {
	return max(Lo, min(Hi, v))
}

// Vector is a score per dimension, indexed in declaration order.
type Vector []int

// Accumulate returns clamp(v[d] + w[d]) for every dimension.
func Accumulate(v Vector, w []int) Vector {
	out := make(Vector, len(v))
	copy(out, v)
	out.add(w)
	return out
}

func (v Vector) add(w []int) {
	for d := range v {
		v[d] = Clamp(v[d] + w[d])
	}
}

// Matrix holds dense weights indexed [question][option][dimension].
type Matrix [][][]int

// NumDims returns the vector length the matrix produces.
func (m Matrix) NumDims() int {
	for _, q := range m {
		for _, o := range q {
			return len(o)
		}
	}
	return 0
}

// Final accumulates the chosen option of every question, in question order,
// starting from the zero vector.
func (m Matrix) Final(path []int) Vector {
	v := make(Vector, m.NumDims())
	m.finalInto(v, path)
	return v
}

func (m Matrix) finalInto(v Vector, path []int) {
	clear(v)
	for q, o := range path {
		v.add(m[q][o])
	}
}

// #region profile
// Facts are the quantities conditions read besides raw scores.
// Top is the highest dimension, ties going to the lowest index. Second is
// the highest score among the other dimensions, so it equals TopValue on a
// tie and with a single dimension.
type Facts struct {
	Top      int
	TopValue int
	Second   int
	Total    int
	Spread   int
}

// Derive computes the facts of a non-empty vector.
func Derive(v Vector) Facts {
	f := Facts{Top: 0, TopValue: v[0]}
	lo := v[0]
	for d, s := range v {
		f.Total += s
		if s > f.TopValue {
			f.Top, f.TopValue = d, s
		}
		lo = min(lo, s)
	}
	f.Spread = f.TopValue - lo
	if len(v) == 1 {
		f.Second = f.TopValue
		return f
	}
	first := true
	for d, s := range v {
		if d == f.Top {
			continue
		}
		if first || s > f.Second {
			f.Second, first = s, false
		}
	}
	return f
}

// Profile is one answer path with its final scores and facts.
type Profile struct {
	Path   []int
	Scores Vector
	Facts
}

// Profile evaluates path from scratch.
func (m Matrix) Profile(path []int) *Profile {
	p := &Profile{}
	m.ProfileInto(p, path)
	return p
}

// ProfileInto recomputes p for path, reusing p's buffers. p.Path aliases path.
func (m Matrix) ProfileInto(p *Profile, path []int) {
	if n := m.NumDims(); cap(p.Scores) < n {
		p.Scores = make(Vector, n)
	} else {
		p.Scores = p.Scores[:n]
	}
	p.Path = path
	m.finalInto(p.Scores, path)
	p.Facts = Derive(p.Scores)
}

// #endregion profile
