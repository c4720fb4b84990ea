// Package quiztest builds small questionnaires for tests.
package quiztest

import (
	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

func dims(ids ...string) []quiz.Dimension {
	out := make([]quiz.Dimension, len(ids))
	for i, id := range ids {
		out[i] = quiz.Dimension{ID: id}
	}
	return out
}

// Opt builds an option from alternating dimension/weight pairs.
func Opt(pairs ...any) quiz.Option {
	w := make(map[string]int, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		w[pairs[i].(string)] = pairs[i+1].(int)
	}
	return quiz.Option{Weights: w}
}

// Calm is three dimensions {calm, wild, shy} and two questions whose options
// weigh +5 or -5 on calm. Final calm is 10, 0 or -10 with odds 1:2:1.
func Calm() *quiz.Questionnaire {
	q := &quiz.Questionnaire{
		Dimensions: dims("calm", "wild", "shy"),
		Questions: []quiz.Question{
			{ID: "q1", Options: []quiz.Option{Opt("calm", 5), Opt("calm", -5)}},
			{ID: "q2", Options: []quiz.Option{Opt("calm", 5), Opt("calm", -5)}},
		},
		Results: []quiz.Result{
			{ID: "calm_high", Priority: 10, Conditions: []condition.Condition{
				{Type: "min", Dim: "calm", Value: condition.Int(10)},
			}},
			{ID: "calm_low", Priority: 10, Conditions: []condition.Condition{
				{Type: "max_le", Dim: "calm", Value: condition.Int(-10)},
			}},
			{ID: "calm_even", Priority: 0},
		},
		Fallback: "calm_even",
	}
	return q
}

// Potions is a tuning-shaped questionnaire: one top-tier result, one
// equilibrium result guarded by spread_between, per-dimension results and an
// unconditional fallback.
func Potions() *quiz.Questionnaire {
	return &quiz.Questionnaire{
		Dimensions: dims("calm", "wild", "shy"),
		Questions: []quiz.Question{
			{ID: "q1", Options: []quiz.Option{Opt("calm", 3, "wild", -1), Opt("wild", 3), Opt("shy", 3, "calm", -1)}},
			{ID: "q2", Options: []quiz.Option{Opt("calm", 2), Opt("wild", 2, "shy", -1), Opt("shy", 2)}},
			{ID: "q3", Options: []quiz.Option{Opt("calm", 4), Opt("wild", 4), Opt("shy", 1, "wild", 1)}},
			{ID: "q4", Options: []quiz.Option{Opt("calm", 1, "shy", 1), Opt("wild", 2), Opt("shy", 3)}},
		},
		Results: []quiz.Result{
			{ID: "potion_top_calm", Priority: 30, Conditions: []condition.Condition{
				{Type: "top_is", Dim: "calm"},
				{Type: "top_diff_gte", Value: condition.Int(6)},
			}},
			{ID: "potion_equilibrium", Priority: 20, Conditions: []condition.Condition{
				{Type: "spread_between", Min: condition.Int(0), Max: condition.Int(1)},
				{Type: "total_min", Value: condition.Int(3)},
			}},
			{ID: "potion_calm", Priority: 10, Conditions: []condition.Condition{
				{Type: "top_is", Dim: "calm"},
			}},
			{ID: "potion_wild", Priority: 10, Conditions: []condition.Condition{
				{Type: "top_is", Dim: "wild"},
				{Type: "diff_greater", A: "wild", B: "shy", Value: condition.Int(1)},
			}},
			{ID: "potion_shy", Priority: 10, Conditions: []condition.Condition{
				{Dim: "shy", Min: condition.Int(4)},
			}},
			{ID: "potion_fallback", Priority: 0},
		},
		Fallback: "potion_fallback",
	}
}
