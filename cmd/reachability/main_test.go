package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
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

func TestReachabilityText(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	code, out := execute(t, "--data", dir, "--samples", "4000", "--show-witness", "--require-all")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "Sampled distribution (4000 paths):")
	assert.Contains(t, out, "Reachable: 3/3")
	assert.Contains(t, out, "calm_high")
	assert.NotContains(t, out, "Unreachable:")
}

func TestReachabilityRequireAllFails(t *testing.T) {
	q := quiztest.Calm()
	q.Results = append([]quiz.Result{{ID: "always", Priority: 5}}, q.Results...)
	dir := quiztest.WriteDir(t, q)

	code, out := execute(t, "--data", dir, "--reachability-only", "--require-all")
	assert.Equal(t, 1, code, out)
	assert.Contains(t, out, "Unreachable: calm_even")

	code, _ = execute(t, "--data", dir, "--reachability-only")
	assert.Equal(t, 0, code)
}

func TestReachabilityUsage(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	code, _ := execute(t, "--data", dir, "--sampling-only", "--reachability-only")
	assert.Equal(t, 2, code)

	code, _ = execute(t, "--data", dir, "--rank-mode", "fuzzy")
	assert.Equal(t, 2, code)

	code, _ = execute(t, "--data", dir, "--ids", "calm_mid", "--reachability-only")
	assert.Equal(t, 2, code)

	code, _ = execute(t, "--data", filepath.Join(dir, "missing"))
	assert.NotEqual(t, 0, code)
}

func TestReachabilityRecordsRuns(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	db := filepath.Join(t.TempDir(), "runs.db")
	code, out := execute(t, "--data", dir, "--db", db, "--samples", "500", "--show-witness", "--json")
	require.Equal(t, 0, code, out)

	st, err := store.NewStore(db)
	require.NoError(t, err)
	defer st.Close()
	reach, err := st.ListRuns(logging.KindReach, 10)
	require.NoError(t, err)
	require.Len(t, reach, 1)
	assert.Equal(t, "ok", reach[0].Decision)
	assert.Contains(t, reach[0].OutcomeJSON, `"witness"`)

	samples, err := st.ListRuns(logging.KindSample, 10)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}
