package replay

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
)

// #region fixture-tests
// TestFixture_Calm loads the calm fixture with its embedded questionnaire and
// checks every recorded path still resolves to its expected result.
func TestFixture_Calm(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "calm.json"))
	require.NoError(t, err)
	q, err := f.EmbeddedQuestionnaire()
	require.NoError(t, err)
	require.NotNil(t, q)

	results, err := Replay(context.Background(), q, f.ToCases())
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Match, "%s: expected %s, got %s", r.Name, r.Expected, r.Got)
	}
	assert.Equal(t, Summary{Total: 4, Matches: 4}, Summarize(results))
}

func TestFixture_Missing(t *testing.T) {
	_, err := LoadFixture(filepath.Join("testdata", "absent.json"))
	assert.Error(t, err)
}

func TestFixture_ExportRoundTrip(t *testing.T) {
	q := quiztest.Potions()
	rep, err := reach.Check(context.Background(), q, reach.Request{Witness: true})
	require.NoError(t, err)

	f := FromReport("potions witnesses", rep)
	require.NoError(t, f.Embed(q))
	require.NotEmpty(t, f.Cases)
	for _, c := range f.Cases {
		assert.True(t, rep.Reachable(c.Expected))
	}

	path := filepath.Join(t.TempDir(), "potions.json")
	require.NoError(t, WriteFixture(path, f))
	loaded, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, f.Cases, loaded.Cases)

	embedded, err := loaded.EmbeddedQuestionnaire()
	require.NoError(t, err)
	results, err := Replay(context.Background(), embedded, loaded.ToCases())
	require.NoError(t, err)
	assert.Zero(t, Summarize(results).Diverged)
}

func TestFixture_NoEmbeddedQuestionnaire(t *testing.T) {
	q, err := (&Fixture{}).EmbeddedQuestionnaire()
	require.NoError(t, err)
	assert.Nil(t, q)
}

// #endregion fixture-tests
