package resolve

import (
	"errors"
	"fmt"
	"slices"

	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/score"
)

// ErrNoMatchingResult means no result holds for a score vector. With a valid
// fallback this cannot happen, so it always indicates broken configuration.
var ErrNoMatchingResult = errors.New("no matching result")

// Resolver picks the winning result for a profile. The matching result with
// the greatest priority wins; equal priorities go to the earliest declared.
type Resolver struct {
	ids        []string
	priorities []int
	conds      [][]condition.Compiled
	// result indexes sorted by (priority desc, declaration asc); the first
	// match in this order is the winner.
	order []int
}

// New compiles every result of q.
func New(q *quiz.Questionnaire) (*Resolver, error) {
	conds, err := q.Compile()
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		ids:        q.ResultIDs(),
		priorities: make([]int, len(q.Results)),
		conds:      conds,
		order:      make([]int, len(q.Results)),
	}
	for i, res := range q.Results {
		r.priorities[i] = res.Priority
		r.order[i] = i
	}
	slices.SortStableFunc(r.order, func(a, b int) int {
		return r.priorities[b] - r.priorities[a]
	})
	return r, nil
}

// Len is the number of results.
func (r *Resolver) Len() int { return len(r.ids) }

// ID returns the id of result i.
func (r *Resolver) ID(i int) string { return r.ids[i] }

// IDs returns result ids in declaration order.
func (r *Resolver) IDs() []string { return r.ids }

// Conditions returns the compiled conditions of result i.
func (r *Resolver) Conditions(i int) []condition.Compiled { return r.conds[i] }

// Resolve returns the index of the winning result.
func (r *Resolver) Resolve(p *score.Profile) (int, error) {
	for _, i := range r.order {
		if condition.Holds(p, r.conds[i]) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("resolve %v: %w", p.Scores, ErrNoMatchingResult)
}

// Matching lists every result that holds for p, in declaration order.
func (r *Resolver) Matching(p *score.Profile) []int {
	var out []int
	for i := range r.conds {
		if condition.Holds(p, r.conds[i]) {
			out = append(out, i)
		}
	}
	return out
}

// Outranks reports whether result a beats result b when both match.
func (r *Resolver) Outranks(a, b int) bool {
	if r.priorities[a] != r.priorities[b] {
		return r.priorities[a] > r.priorities[b]
	}
	return a < b
}

// Resolve is a one-shot helper returning the winning result id for an answer path.
func Resolve(q *quiz.Questionnaire, path []int) (string, error) {
	r, err := New(q)
	if err != nil {
		return "", err
	}
	i, err := r.Resolve(q.Matrix().Profile(path))
	if err != nil {
		return "", err
	}
	return r.ID(i), nil
}
