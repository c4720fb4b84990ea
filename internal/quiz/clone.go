package quiz

import (
	"maps"
	"slices"

	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
)

// Clone returns a deep copy that shares no mutable state with q.
func (q *Questionnaire) Clone() *Questionnaire {
	out := &Questionnaire{
		Fallback:      q.Fallback,
		Dimensions:    make([]Dimension, len(q.Dimensions)),
		Questions:     make([]Question, len(q.Questions)),
		Results:       make([]Result, len(q.Results)),
		SettingsMeta:  cloneExtra(q.SettingsMeta),
		QuestionsMeta: cloneExtra(q.QuestionsMeta),
		ResultsMeta:   cloneExtra(q.ResultsMeta),
	}
	for i, d := range q.Dimensions {
		out.Dimensions[i] = Dimension{ID: d.ID, Extra: cloneExtra(d.Extra)}
	}
	for i, qu := range q.Questions {
		out.Questions[i] = qu.Clone()
	}
	for i, r := range q.Results {
		out.Results[i] = r.Clone()
	}
	return out
}

// Clone returns a deep copy of the question.
func (qu Question) Clone() Question {
	out := Question{ID: qu.ID, Extra: cloneExtra(qu.Extra)}
	if qu.Options != nil {
		out.Options = make([]Option, len(qu.Options))
		for i, o := range qu.Options {
			out.Options[i] = Option{Weights: maps.Clone(o.Weights), Extra: cloneExtra(o.Extra)}
		}
	}
	return out
}

// Clone returns a deep copy of the result.
func (r Result) Clone() Result {
	out := Result{ID: r.ID, Priority: r.Priority, Extra: cloneExtra(r.Extra)}
	if r.Conditions != nil {
		out.Conditions = make([]condition.Condition, len(r.Conditions))
		for i, c := range r.Conditions {
			out.Conditions[i] = c.Clone()
		}
	}
	return out
}

func cloneExtra(e codec.Extra) codec.Extra {
	if e == nil {
		return nil
	}
	out := make(codec.Extra, len(e))
	for k, v := range e {
		out[k] = slices.Clone(v)
	}
	return out
}
