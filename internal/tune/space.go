package tune

import (
	"fmt"

	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

// #region param
// ParamKind separates option weights from result fields.
type ParamKind uint8

const (
	ParamWeight ParamKind = iota
	ParamResult
)

// fieldPriority addresses a result's priority rather than a condition field.
const fieldPriority = "priority"

const priorityCeiling = 40

// Param is one tunable integer of a questionnaire with its legal bounds.
// Weight params address Q/O/D; result params address Result and, for
// condition fields, Cond (-1 for the priority) and Field.
type Param struct {
	Kind   ParamKind
	Label  string
	Lo, Hi int
	Step   int

	Q, O, D int
	dim     string

	Result int
	Cond   int
	Field  string
	tier   Tier

	sparse bool // weight key absent from the input questionnaire
}

// Get reads the current value from q.
func (p *Param) Get(q *quiz.Questionnaire) int {
	if p.Kind == ParamWeight {
		return q.Questions[p.Q].Options[p.O].Weight(p.dim)
	}
	r := &q.Results[p.Result]
	if p.Cond < 0 {
		return r.Priority
	}
	v, _ := r.Conditions[p.Cond].Field(p.Field)
	return v
}

// Set clamps v to the bounds and writes it into q. Writing a result field
// re-sanitises the unfrozen paired fields of that result. A weight the input
// did not declare is removed again when it returns to 0.
func (p *Param) Set(q *quiz.Questionnaire, v int) {
	v = max(p.Lo, min(p.Hi, v))
	if p.Kind == ParamWeight {
		opt := &q.Questions[p.Q].Options[p.O]
		if v == 0 {
			if _, ok := opt.Weights[p.dim]; !ok || p.sparse {
				delete(opt.Weights, p.dim)
				return
			}
		}
		if opt.Weights == nil {
			opt.Weights = map[string]int{}
		}
		opt.Weights[p.dim] = v
		return
	}
	r := &q.Results[p.Result]
	if p.Cond < 0 {
		r.Priority = v
	} else {
		r.Conditions[p.Cond].SetField(p.Field, v)
	}
	sanitize(r, p.tier)
}

// #endregion param

// #region sanitize
// sanitize keeps the paired fields of r consistent: totals, top gaps and
// absolute differences are non-negative, a total_min above its total_max
// collapses both to the midpoint, and so does an inverted spread_between.
// Conditions frozen for tier are never touched.
func sanitize(r *quiz.Result, tier Tier) {
	var totalMin, totalMax *condition.Condition
	for i := range r.Conditions {
		c := &r.Conditions[i]
		if Frozen(tier, c) {
			continue
		}
		switch condition.Kind(c.Type) {
		case condition.KindTotalMin:
			if nonNegative(c, condition.FieldValue) {
				totalMin = c
			}
		case condition.KindTotalMax:
			if nonNegative(c, condition.FieldValue) {
				totalMax = c
			}
		case condition.KindTopDiffGTE, condition.KindTopDiffLTE, condition.KindDiffAbsLTE:
			nonNegative(c, condition.FieldValue)
		case condition.KindSpreadBetween:
			hasMin := nonNegative(c, condition.FieldMin)
			hasMax := nonNegative(c, condition.FieldMax)
			if hasMin && hasMax {
				collapse(c, condition.FieldMin, c, condition.FieldMax)
			}
		}
	}
	if totalMin != nil && totalMax != nil {
		collapse(totalMin, condition.FieldValue, totalMax, condition.FieldValue)
	}
}

func nonNegative(c *condition.Condition, field string) bool {
	v, ok := c.Field(field)
	if ok && v < 0 {
		c.SetField(field, 0)
	}
	return ok
}

func collapse(lo *condition.Condition, loField string, hi *condition.Condition, hiField string) {
	a, _ := lo.Field(loField)
	b, _ := hi.Field(hiField)
	if a > b {
		mid := (a + b) / 2
		lo.SetField(loField, mid)
		hi.SetField(hiField, mid)
	}
}

// #endregion sanitize

// #region space
// Space is the full parameter set of a questionnaire under a set of roles.
type Space struct {
	Weights []Param
	Results []Param

	byWeight map[[3]int]int
}

// weightBand bounds a weight by the sign it was declared with. Negative
// weights stay negative; zero weights get a small band for cross-dimension
// shaping.
func weightBand(cur int) (int, int) {
	switch {
	case cur < 0:
		return -3, -1
	case cur == 0:
		return -1, 2
	}
	return 0, 6
}

// BuildSpace enumerates the tunable params of q. The fallback priority is
// frozen and every other priority stays strictly above it. Every condition of
// a top-tier result is frozen and so is the equilibrium result's spread_between.
func BuildSpace(q *quiz.Questionnaire, roles Roles) Space {
	s := Space{byWeight: map[[3]int]int{}}
	floor := 0
	if fb := q.ResultIndex(q.Fallback); fb >= 0 {
		floor = max(floor, q.Results[fb].Priority+1)
	}
	dims := q.DimIDs()
	for qi, qu := range q.Questions {
		for oi, opt := range qu.Options {
			for di, dim := range dims {
				lo, hi := weightBand(opt.Weight(dim))
				_, declared := opt.Weights[dim]
				s.byWeight[[3]int{qi, oi, di}] = len(s.Weights)
				s.Weights = append(s.Weights, Param{
					Kind:   ParamWeight,
					Label:  fmt.Sprintf("q%d.o%d.%s", qi+1, oi+1, dim),
					Lo:     lo,
					Hi:     hi,
					Step:   1,
					Q:      qi,
					O:      oi,
					D:      di,
					dim:    dim,
					sparse: !declared,
				})
			}
		}
	}

	for ri, r := range q.Results {
		tier := roles.Tier(r.ID, q.Fallback)
		if tier != TierFallback {
			s.Results = append(s.Results, Param{
				Kind:   ParamResult,
				Label:  r.ID + "." + fieldPriority,
				Lo:     floor,
				Hi:     max(floor, priorityCeiling),
				Step:   1,
				Result: ri,
				Cond:   -1,
				Field:  fieldPriority,
				tier:   tier,
			})
		}
		for ci := range r.Conditions {
			c := &r.Conditions[ci]
			if Frozen(tier, c) {
				continue
			}
			for _, field := range c.Tunable() {
				b := condition.Bounds(condition.Kind(c.Type), field)
				s.Results = append(s.Results, Param{
					Kind:   ParamResult,
					Label:  fmt.Sprintf("%s.conditions[%d].%s", r.ID, ci, field),
					Lo:     b.Lo,
					Hi:     b.Hi,
					Step:   1,
					Result: ri,
					Cond:   ci,
					Field:  field,
					tier:   tier,
				})
			}
		}
	}
	return s
}

// Frozen reports whether c is excluded from tuning for a result of tier.
func Frozen(tier Tier, c *condition.Condition) bool {
	switch tier {
	case TierTop:
		return true
	case TierEquilibrium:
		return condition.Kind(c.Type) == condition.KindSpreadBetween
	}
	return false
}

// Weight returns the param of one option weight.
func (s *Space) Weight(qi, oi, di int) (*Param, bool) {
	i, ok := s.byWeight[[3]int{qi, oi, di}]
	if !ok {
		return nil, false
	}
	return &s.Weights[i], true
}

// #endregion space
