package replay

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
)

// #region fixture-types
// Fixture is the top-level JSON structure for a replay fixture: answer paths
// and the result each one must resolve to. Questionnaire optionally embeds the
// quiz.Encode document the expectations were recorded against.
type Fixture struct {
	Description   string          `json:"description"`
	Questionnaire json.RawMessage `json:"questionnaire,omitempty"`
	Cases         []FixtureCase   `json:"cases"`
}

// FixtureCase is one recorded answer path.
type FixtureCase struct {
	Name     string `json:"name"`
	Path     []int  `json:"path"`
	Expected string `json:"expected"`
}

// #endregion fixture-types

// #region fixture-loader
// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	if err := codec.WriteFile(path, f); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// EmbeddedQuestionnaire decodes the embedded document, or returns nil when
// the fixture carries none.
func (f *Fixture) EmbeddedQuestionnaire() (*quiz.Questionnaire, error) {
	if len(f.Questionnaire) == 0 {
		return nil, nil
	}
	return quiz.Decode(f.Questionnaire)
}

// ToCases converts fixture cases to harness cases.
func (f *Fixture) ToCases() []Case {
	out := make([]Case, len(f.Cases))
	for i, c := range f.Cases {
		out[i] = Case(c)
	}
	return out
}

// #endregion fixture-loader

// #region fixture-export
// FromReport builds a fixture from the witnesses of a reachability report.
// Results without a witness are skipped.
func FromReport(description string, rep reach.Report) *Fixture {
	f := &Fixture{Description: description, Cases: []FixtureCase{}}
	for _, v := range rep.Verdicts {
		if !v.Reachable || v.Witness == nil || !v.Confirmed {
			continue
		}
		f.Cases = append(f.Cases, FixtureCase{Name: v.ID, Path: v.Witness, Expected: v.ID})
	}
	return f
}

// Embed stores q in the fixture.
func (f *Fixture) Embed(q *quiz.Questionnaire) error {
	doc, err := quiz.Encode(q)
	if err != nil {
		return fmt.Errorf("embed questionnaire: %w", err)
	}
	f.Questionnaire = doc
	return nil
}

// #endregion fixture-export
