package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/replay"
	"github.com/danielpatrickdp/quiz-calibrator/internal/store"
)

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"}, args...))
	return cli.Execute(root), out.String()
}

func writeFixture(t *testing.T, f *replay.Fixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, replay.WriteFixture(path, f))
	return path
}

func TestReplayFixtureMatches(t *testing.T) {
	f := &replay.Fixture{Cases: []replay.FixtureCase{
		{Name: "up", Path: []int{0, 0}, Expected: "calm_high"},
		{Name: "mixed", Path: []int{0, 1}, Expected: "calm_even"},
	}}
	require.NoError(t, f.Embed(quiztest.Calm()))

	code, out := execute(t, "--fixture", writeFixture(t, f))
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "Summary: 2 total, 2 match, 0 diverge")
}

func TestReplayFixtureDiverges(t *testing.T) {
	f := &replay.Fixture{Cases: []replay.FixtureCase{
		{Name: "up", Path: []int{0, 0}, Expected: "calm_low"},
		{Name: "short", Path: []int{0}, Expected: "calm_high"},
	}}
	require.NoError(t, f.Embed(quiztest.Calm()))

	code, out := execute(t, "--fixture", writeFixture(t, f))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Summary: 2 total, 0 match, 2 diverge")
}

func TestReplayFixtureUsesDataDirWhenGiven(t *testing.T) {
	f := &replay.Fixture{Cases: []replay.FixtureCase{{Name: "down", Path: []int{1, 1}, Expected: "calm_low"}}}
	require.NoError(t, f.Embed(quiztest.Calm()))
	path := writeFixture(t, f)

	code, _ := execute(t, "--fixture", path)
	assert.Equal(t, 0, code)

	q := quiztest.Calm()
	q.Questions[1].Options[1] = quiztest.Opt("calm", 5)
	code, out := execute(t, "--fixture", path, "--data", quiztest.WriteDir(t, q))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "calm_even")
}

func TestReplayFromStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.NewStore(db)
	require.NoError(t, err)
	_, err = st.CommitQuestionnaire(quiztest.Calm(), "import", "")
	require.NoError(t, err)
	rep := reach.Report{Verdicts: []reach.Verdict{
		{ID: "calm_high", Reachable: true, Confirmed: true, Witness: []int{0, 0}},
		{ID: "calm_low", Reachable: true, Confirmed: true, Witness: []int{1, 1}},
	}}
	entry, err := logging.NewRunEntry(logging.KindReach, nil, rep)
	require.NoError(t, err)
	entry.Decision = "ok"
	_, err = logging.LogRun(st.DB(), entry)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	code, out := execute(t, "--db", db)
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "Summary: 2 total, 2 match, 0 diverge")
}

func TestReplayUsage(t *testing.T) {
	code, _ := execute(t)
	assert.Equal(t, 2, code)

	code, _ = execute(t, "--fixture", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 2, code)

	db := filepath.Join(t.TempDir(), "empty.db")
	code, _ = execute(t, "--db", db)
	assert.Equal(t, 2, code)
}
