package quiz_test

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
)

const settingsJSON = `{
  "title": "Potion Quiz",
  "dimensions": [{"id": "calm", "label": "Calm"}, {"id": "wild"}, {"id": "shy"}]
}`

const questionsJSON = `{
  "version": 3,
  "questions": [
    {"id": "q1", "text": "Pick a door", "options": [
      {"text": "Blue", "weights": {"calm": 2}},
      {"text": "Red", "weights": {"wild": 2, "calm": -1}}
    ]}
  ]
}`

const resultsJSON = `{
  "results": [
    {"id": "blue", "priority": 5, "title": "Blue potion", "conditions": [{"type": "top_is", "dim": "calm"}]},
    {"id": "red", "priority": 5, "conditions": [{"dim": "wild", "min": 1, "hint": "legacy"}]},
    {"id": "plain", "priority": 0, "conditions": []}
  ]
}`

func writeData(t *testing.T, settings, questions, results string) string {
	t.Helper()
	dir := t.TempDir()
	p := quiz.DataPaths(dir)
	require.NoError(t, os.WriteFile(p.Settings, []byte(settings), 0o644))
	require.NoError(t, os.WriteFile(p.Questions, []byte(questions), 0o644))
	require.NoError(t, os.WriteFile(p.Results, []byte(results), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	q, err := quiz.Load(writeData(t, settingsJSON, questionsJSON, resultsJSON))
	require.NoError(t, err)

	assert.Equal(t, []string{"calm", "wild", "shy"}, q.DimIDs())
	assert.Equal(t, "plain", q.Fallback)
	assert.Equal(t, []int{2}, q.OptionCounts())
	assert.Equal(t, -1, q.Questions[0].Options[1].Weight("calm"))
	assert.Equal(t, 0, q.Questions[0].Options[1].Weight("shy"))

	red := q.Results[1].Conditions[0]
	assert.Equal(t, "", red.Type)
	require.NotNil(t, red.Min)
	assert.Nil(t, red.Max)

	m := q.Matrix()
	assert.Equal(t, []int{-1, 2, 0}, m[0][1])
}

func TestSaveRoundTripsUnknownMembers(t *testing.T) {
	dir := writeData(t, settingsJSON, questionsJSON, resultsJSON)
	q, err := quiz.Load(dir)
	require.NoError(t, err)

	q.Results[0].Priority = 7
	require.NoError(t, quiz.Save(q, dir))

	p := quiz.DataPaths(dir)
	bak, err := os.ReadFile(p.Results + ".bak")
	require.NoError(t, err)
	assert.JSONEq(t, resultsJSON, string(bak))

	saved, err := os.ReadFile(p.Results)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), saved[len(saved)-1])

	var raw map[string][]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(saved, &raw))
	assert.JSONEq(t, `"Blue potion"`, string(raw["results"][0]["title"]))
	assert.JSONEq(t, `7`, string(raw["results"][0]["priority"]))
	assert.JSONEq(t, `[{"dim":"wild","min":1,"hint":"legacy"}]`, string(raw["results"][1]["conditions"]))
	assert.JSONEq(t, `[]`, string(raw["results"][2]["conditions"]))

	questions, err := os.ReadFile(p.Questions)
	require.NoError(t, err)
	assert.JSONEq(t, questionsJSON, string(questions))

	again, err := quiz.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, q, again)
}

func TestEncodeDecode(t *testing.T) {
	q := quiztest.Potions()
	data, err := quiz.Encode(q)
	require.NoError(t, err)

	back, err := quiz.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, q.Fallback, back.Fallback)
	assert.Equal(t, q.ResultIDs(), back.ResultIDs())
	assert.Equal(t, q.Matrix(), back.Matrix())

	again, err := quiz.Encode(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestExplicitFallback(t *testing.T) {
	settings := `{"dimensions": [{"id": "calm"}], "fallback_result": "low"}`
	results := `{"results": [
	  {"id": "high", "priority": 3, "conditions": [{"type": "min", "dim": "calm", "value": 1}]},
	  {"id": "low", "priority": 1, "conditions": [{"type": "max_le", "dim": "calm", "value": 0}]}
	]}`
	q, err := quiz.Load(writeData(t, settings, questionsJSON, results))
	require.NoError(t, err)
	assert.Equal(t, "low", q.Fallback)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(q *quiz.Questionnaire)
	}{
		{"no dimensions", func(q *quiz.Questionnaire) { q.Dimensions = nil }},
		{"no questions", func(q *quiz.Questionnaire) { q.Questions = nil }},
		{"no results", func(q *quiz.Questionnaire) { q.Results = nil }},
		{"empty question", func(q *quiz.Questionnaire) { q.Questions[1].Options = nil }},
		{"duplicate dimension", func(q *quiz.Questionnaire) { q.Dimensions[2].ID = "calm" }},
		{"duplicate result", func(q *quiz.Questionnaire) { q.Results[1].ID = q.Results[0].ID }},
		{"unknown kind", func(q *quiz.Questionnaire) { q.Results[0].Conditions[0].Type = "bogus" }},
		{"undeclared dimension", func(q *quiz.Questionnaire) { q.Results[0].Conditions[0].Dim = "brave" }},
		{"missing fallback", func(q *quiz.Questionnaire) { q.Fallback = "nope" }},
		{"fallback priority tie", func(q *quiz.Questionnaire) { q.Results[0].Priority = 0 }},
		{"fallback priority above", func(q *quiz.Questionnaire) { q.Results[2].Priority = 50 }},
	}
	require.NoError(t, quiztest.Calm().Validate())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := quiztest.Calm()
			c.mutate(q)
			assert.ErrorIs(t, q.Validate(), quiz.ErrMalformedInput)
		})
	}
}

func TestCompileWrapsBothErrors(t *testing.T) {
	q := quiztest.Calm()
	q.Results[1].Conditions = append(q.Results[1].Conditions, condition.Condition{Type: "sum_min", Dims: []string{"loud"}})
	_, err := q.Compile()
	assert.ErrorIs(t, err, quiz.ErrMalformedInput)
	assert.ErrorIs(t, err, condition.ErrInvalid)
	assert.Contains(t, err.Error(), "calm_low")
}

func TestCloneSharesNothing(t *testing.T) {
	q := quiztest.Potions()
	c := q.Clone()
	require.Equal(t, q, c)

	c.Questions[0].Options[0].Weights["calm"] = 99
	c.Results[1].Conditions[0].SetField(condition.FieldMax, 30)
	c.Results[2].Priority = 1
	c.Dimensions[0].ID = "x"

	assert.Equal(t, 3, q.Questions[0].Options[0].Weights["calm"])
	assert.Equal(t, 1, *q.Results[1].Conditions[0].Max)
	assert.Equal(t, 10, q.Results[2].Priority)
	assert.Equal(t, "calm", q.Dimensions[0].ID)
}

func TestDetectFallback(t *testing.T) {
	q := quiztest.Potions()
	assert.Equal(t, "potion_fallback", q.DetectFallback())

	q.Results = q.Results[:len(q.Results)-1]
	assert.Equal(t, "", q.DetectFallback())
}

func TestLoadMissingFile(t *testing.T) {
	dir := writeData(t, settingsJSON, questionsJSON, resultsJSON)
	require.NoError(t, os.Remove(filepath.Join(dir, "results.json")))
	_, err := quiz.Load(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
