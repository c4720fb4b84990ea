package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz/quiztest"
)

// StoreSuite opens a fresh database per test.
type StoreSuite struct {
	suite.Suite
	s *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

// #region helpers
func (ts *StoreSuite) SetupTest() {
	s, err := NewStore(filepath.Join(ts.T().TempDir(), "test.db"))
	ts.Require().NoError(err)
	ts.s = s
}

func (ts *StoreSuite) TearDownTest() {
	ts.s.Close()
}

func (ts *StoreSuite) encoded(q *quiz.Questionnaire) string {
	data, err := quiz.Encode(q)
	ts.Require().NoError(err)
	return string(data)
}

// #endregion helpers

// #region snapshot-tests
func (ts *StoreSuite) TestEmptyHistory() {
	_, err := ts.s.GetCurrent()
	ts.ErrorIs(err, ErrNotFound)
	_, err = ts.s.GetVersion("missing")
	ts.ErrorIs(err, ErrNotFound)
	ts.ErrorIs(ts.s.Rollback("missing"), ErrNotFound)

	versions, err := ts.s.ListVersions(10)
	ts.Require().NoError(err)
	ts.Empty(versions)
}

func (ts *StoreSuite) TestCommitChainsParents() {
	q := quiztest.Potions()

	first, err := ts.s.CommitQuestionnaire(q, "import", "")
	ts.Require().NoError(err)
	ts.Empty(first.ParentID)

	tuned := q.Clone()
	tuned.Results[2].Priority = 12
	second, err := ts.s.CommitQuestionnaire(tuned, "retune", `{"objective":1.5}`)
	ts.Require().NoError(err)
	ts.Equal(first.VersionID, second.ParentID)

	cur, err := ts.s.GetCurrent()
	ts.Require().NoError(err)
	ts.Equal(second.VersionID, cur.VersionID)
	ts.Equal("retune", cur.Label)
	ts.JSONEq(`{"objective":1.5}`, cur.MetricsJSON)

	got, err := cur.Questionnaire()
	ts.Require().NoError(err)
	ts.Equal(ts.encoded(tuned), ts.encoded(got))

	versions, err := ts.s.ListVersions(10)
	ts.Require().NoError(err)
	ts.Require().Len(versions, 2)
	ts.Equal(second.VersionID, versions[0].VersionID)
	ts.Equal(first.VersionID, versions[1].VersionID)
}

func (ts *StoreSuite) TestRollbackMovesActivePointer() {
	first, err := ts.s.CommitQuestionnaire(quiztest.Calm(), "import", "")
	ts.Require().NoError(err)
	_, err = ts.s.CommitQuestionnaire(quiztest.Potions(), "retune", "")
	ts.Require().NoError(err)

	ts.Require().NoError(ts.s.Rollback(first.VersionID))
	cur, err := ts.s.GetCurrent()
	ts.Require().NoError(err)
	ts.Equal(first.VersionID, cur.VersionID)

	// the next commit branches from the rolled-back version
	third, err := ts.s.CommitQuestionnaire(quiztest.Calm(), "retune", "")
	ts.Require().NoError(err)
	ts.Equal(first.VersionID, third.ParentID)
}

// #endregion snapshot-tests

// #region run-tests
func (ts *StoreSuite) TestListRuns() {
	for _, kind := range []string{logging.KindSample, logging.KindReach, logging.KindReach} {
		_, err := logging.LogRun(ts.s.DB(), logging.RunEntry{Kind: kind, Decision: "ok"})
		ts.Require().NoError(err)
	}

	all, err := ts.s.ListRuns("", 10)
	ts.Require().NoError(err)
	ts.Len(all, 3)

	reach, err := ts.s.ListRuns(logging.KindReach, 10)
	ts.Require().NoError(err)
	ts.Len(reach, 2)
	for _, e := range reach {
		ts.Equal(logging.KindReach, e.Kind)
		ts.NotEmpty(e.RunID)
		ts.False(e.CreatedAt.IsZero())
	}

	one, err := ts.s.ListRuns("", 1)
	ts.Require().NoError(err)
	ts.Len(one, 1)
}

// #endregion run-tests
