package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
)

// #region harness-tests
func TestReplay_Divergence(t *testing.T) {
	q := quiztest.Calm()
	cases := []Case{
		{Name: "ok", Path: []int{0, 0}, Expected: "calm_high"},
		{Name: "drifted", Path: []int{0, 0}, Expected: "calm_even"},
		{Name: "short", Path: []int{0}, Expected: "calm_high"},
		{Name: "range", Path: []int{0, 2}, Expected: "calm_high"},
	}
	results, err := Replay(context.Background(), q, cases)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Match)
	assert.False(t, results[1].Match)
	assert.Equal(t, "calm_high", results[1].Got)
	assert.Contains(t, results[2].Reason, "1 answers")
	assert.Contains(t, results[3].Reason, "out of range")
	assert.Empty(t, results[3].Got)

	assert.Equal(t, Summary{Total: 4, Matches: 1, Diverged: 3}, Summarize(results))
}

func TestReplay_MalformedQuestionnaire(t *testing.T) {
	q := quiztest.Calm()
	q.Results[0].Conditions[0].Dim = "nope"
	_, err := Replay(context.Background(), q, nil)
	assert.Error(t, err)
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Replay(ctx, quiztest.Calm(), []Case{{Name: "x", Path: []int{0, 0}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplay_Empty(t *testing.T) {
	results, err := Replay(context.Background(), quiztest.Calm(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, Summary{}, Summarize(results))
}

// #endregion harness-tests
