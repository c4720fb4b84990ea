package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
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

func TestIdealPathPrintsChoices(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	code, out := execute(t, "--data", dir, "--result-id", "calm_low")
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "Target result: calm_low")
	assert.Contains(t, out, "Q1: option 2")
	assert.Contains(t, out, "Q2: option 2")
	assert.Contains(t, out, "calm: -10")
}

func TestIdealPathListResults(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	code, out := execute(t, "--data", dir, "--list-results")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "calm_high: \n")
	assert.Contains(t, out, "calm_even: \n")
}

func TestIdealPathExitCodes(t *testing.T) {
	dir := quiztest.WriteDir(t, quiztest.Calm())
	code, _ := execute(t, "--data", dir)
	assert.Equal(t, 2, code)

	code, _ = execute(t, "--data", dir, "--result-id", "calm_mid")
	assert.Equal(t, 2, code)

	q := quiztest.Calm()
	q.Results = append([]quiz.Result{{ID: "always", Priority: 5}}, q.Results...)
	code, out := execute(t, "--data", quiztest.WriteDir(t, q), "--result-id", "calm_even")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "No answer path found for calm_even")
}
