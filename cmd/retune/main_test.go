package main

import (
	"bytes"
	"os"
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
	root.SetArgs(append([]string{
		"--env-file", filepath.Join(t.TempDir(), "none.env"),
		"--log-level", "error",
		"--goals", filepath.Join(t.TempDir(), "none.yaml"),
	}, args...))
	return cli.Execute(root), out.String()
}

func TestRetuneDryRun(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Potions())
	before, err := os.ReadFile(quiz.DataPaths(dir).Results)
	require.NoError(t, err)

	code, out := execute(t, "--data", dir, "--iterations", "40", "--samples", "400", "--final-samples", "800")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Loaded: 4 questions, 6 results, 36 weight params, 8 result params")
	assert.Contains(t, out, "Targets: non-top=8%±1, top=4.25%±1, equilibrium=2%±1, fallback<=0.05%")
	assert.Contains(t, out, "iter 40/40")
	assert.Contains(t, out, "Validation objective (800 samples)")

	after, err := os.ReadFile(quiz.DataPaths(dir).Results)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	_, err = os.Stat(quiz.DataPaths(dir).Results + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestRetuneGoalFlags(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Potions())
	code, out := execute(t, "--data", dir, "--iterations", "1", "--samples", "100", "--final-samples", "0",
		"--non-top-target", "12.5", "--fallback-max", "1")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "non-top=12.5%±1")
	assert.Contains(t, out, "fallback<=1%")
	assert.NotContains(t, out, "Validation objective")
}

func TestRetuneSaveCommitsSnapshots(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Potions())
	db := filepath.Join(t.TempDir(), "quizcal.db")
	code, out := execute(t, "--data", dir, "--db", db, "--iterations", "20", "--samples", "300", "--final-samples", "0", "--save")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Saved tuned files.")

	_, err := os.Stat(quiz.DataPaths(dir).Results + ".bak")
	require.NoError(t, err)
	saved, err := quiz.Load(dir)
	require.NoError(t, err)
	require.NoError(t, saved.Validate())

	st, err := store.NewStore(db)
	require.NoError(t, err)
	defer st.Close()
	versions, err := st.ListVersions(10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "retune", versions[0].Label)
	assert.Equal(t, "import", versions[1].Label)
	assert.Equal(t, versions[1].VersionID, versions[0].ParentID)
	assert.Contains(t, versions[0].MetricsJSON, `"objective"`)

	runs, err := st.ListRuns(logging.KindTune, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "saved", runs[0].Decision)
}

func TestRetuneUsage(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Potions())
	code, _ := execute(t, "--data", dir, "--samples", "0")
	assert.Equal(t, 2, code)
	code, _ = execute(t, "--data", dir, "--iterations", "many")
	assert.Equal(t, 2, code)
}
