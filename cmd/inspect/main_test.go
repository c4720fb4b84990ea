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

// seed commits two snapshots and one run and returns the db path with the
// version ids, oldest first.
func seed(t *testing.T) (string, []string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "quizcal.db")
	st, err := store.NewStore(db)
	require.NoError(t, err)
	defer st.Close()

	first, err := st.CommitQuestionnaire(quiztest.Calm(), "import", "")
	require.NoError(t, err)
	q := quiztest.Calm()
	q.Results[0].Priority = 12
	second, err := st.CommitQuestionnaire(q, "retune", `{"objective":1.5}`)
	require.NoError(t, err)

	entry, err := logging.NewRunEntry(logging.KindTune, map[string]int{"iterations": 1}, map[string]float64{"objective": 1.5})
	require.NoError(t, err)
	entry.Decision = "saved"
	_, err = logging.LogRun(st.DB(), entry)
	require.NoError(t, err)
	return db, []string{first.VersionID, second.VersionID}
}

func TestInspectList(t *testing.T) {
	db, ids := seed(t)
	code, out := execute(t, "--db", db)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, ids[0][:8])
	assert.Contains(t, out, "* "+ids[1][:8])
	assert.Contains(t, out, "retune")
}

func TestInspectDetail(t *testing.T) {
	db, ids := seed(t)
	code, out := execute(t, "--db", db, "--version", ids[1])
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Parent:     "+ids[0])
	assert.Contains(t, out, `Metrics:    {"objective":1.5}`)
	assert.Contains(t, out, "calm_high")
	assert.Contains(t, out, " 12\n")

	code, _ = execute(t, "--db", db, "--version", "nope")
	assert.Equal(t, 2, code)
}

func TestInspectRuns(t *testing.T) {
	db, _ := seed(t)
	code, out := execute(t, "runs", "--db", db, "--kind", logging.KindTune)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "saved")

	code, out = execute(t, "runs", "--db", db, "--kind", logging.KindReplay)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "no runs found")
}

func TestInspectRollbackWrites(t *testing.T) {
	db, ids := seed(t)
	dir := quiztest.WriteDir(t, quiztest.Calm())

	code, out := execute(t, "rollback", ids[1], "--db", db, "--data", dir, "--write")
	require.Equal(t, 0, code, out)
	q, err := quiz.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 12, q.Results[0].Priority)

	code, out = execute(t, "rollback", ids[0], "--db", db)
	require.Equal(t, 0, code, out)
	st, err := store.NewStore(db)
	require.NoError(t, err)
	defer st.Close()
	cur, err := st.GetCurrent()
	require.NoError(t, err)
	assert.Equal(t, ids[0], cur.VersionID)

	code, _ = execute(t, "rollback", "nope", "--db", db)
	assert.Equal(t, 2, code)
}

func TestInspectImport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "fresh.db")
	dir := quiztest.WriteDir(t, quiztest.Potions())
	code, out := execute(t, "import", "--db", db, "--data", dir, "--label", "baseline")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "(baseline)")

	code, out = execute(t, "--db", db, "--json")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, `"label": "baseline"`)
	assert.Contains(t, out, `"active": true`)
}

func TestInspectRequiresDB(t *testing.T) {
	code, _ := execute(t)
	assert.Equal(t, 2, code)
}
