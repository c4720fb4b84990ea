package quiztest

import (
	"os"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

// WriteDir writes q as settings/questions/results.json into a fresh temp dir
// and returns the dir.
func WriteDir(t testing.TB, q *quiz.Questionnaire) string {
	t.Helper()
	doc, err := quiz.Encode(q)
	require.NoError(t, err)
	var parts struct {
		Settings  json.RawMessage `json:"settings"`
		Questions json.RawMessage `json:"questions"`
		Results   json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(doc, &parts))

	dir := t.TempDir()
	p := quiz.DataPaths(dir)
	require.NoError(t, os.WriteFile(p.Settings, parts.Settings, 0o644))
	require.NoError(t, os.WriteFile(p.Questions, parts.Questions, 0o644))
	require.NoError(t, os.WriteFile(p.Results, parts.Results, 0o644))
	return dir
}
