package store

import (
	"time"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
)

// #region snapshot
// Snapshot is one committed version of a questionnaire. Document is the
// quiz.Encode form; ParentID is empty for the first import.
type Snapshot struct {
	VersionID   string
	ParentID    string
	Label       string // "import" | "retune" | free text
	Document    []byte
	CreatedAt   time.Time
	MetricsJSON string
}

// Questionnaire decodes the snapshot document.
func (s Snapshot) Questionnaire() (*quiz.Questionnaire, error) {
	return quiz.Decode(s.Document)
}

// #endregion snapshot
