package quiz

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
	"github.com/danielpatrickdp/quiz-calibrator/internal/score"
)

// ErrMalformedInput marks questionnaire data that cannot be evaluated.
var ErrMalformedInput = errors.New("malformed input")

// #region dimension
// Dimension names one axis of the score vector.
type Dimension struct {
	ID    string      `json:"id"`
	Extra codec.Extra `json:"-"`
}

// #endregion dimension

// #region option
// Option is a selectable answer. Weights is sparse: an absent dimension weighs 0.
type Option struct {
	Weights map[string]int `json:"weights"`
	Extra   codec.Extra    `json:"-"`
}

// Weight returns the option's weight on dim.
func (o Option) Weight(dim string) int {
	return o.Weights[dim]
}

// #endregion option

// #region question
// Question is an ordered list of options; exactly one is chosen per respondent.
type Question struct {
	ID      string      `json:"id,omitempty"`
	Options []Option    `json:"options"`
	Extra   codec.Extra `json:"-"`
}

// #endregion question

// #region result
// Result is one outcome: the highest-priority result whose conditions all hold wins.
// An empty condition list matches unconditionally.
type Result struct {
	ID         string                `json:"id"`
	Priority   int                   `json:"priority"`
	Conditions []condition.Condition `json:"conditions"`
	Extra      codec.Extra           `json:"-"`
}

// #endregion result

// #region questionnaire
// Questionnaire is the in-memory ground truth for one run.
// Fallback is the id of the catch-all result with the lowest priority.
type Questionnaire struct {
	Dimensions []Dimension
	Questions  []Question
	Results    []Result
	Fallback   string

	// Top-level members of the source files other than the ones above, kept for Save.
	SettingsMeta  codec.Extra
	QuestionsMeta codec.Extra
	ResultsMeta   codec.Extra
}

// DimIDs returns dimension ids in declaration order.
func (q *Questionnaire) DimIDs() []string {
	ids := make([]string, len(q.Dimensions))
	for i, d := range q.Dimensions {
		ids[i] = d.ID
	}
	return ids
}

// DimIndex maps dimension id to its position.
func (q *Questionnaire) DimIndex() map[string]int {
	idx := make(map[string]int, len(q.Dimensions))
	for i, d := range q.Dimensions {
		idx[d.ID] = i
	}
	return idx
}

// ResultIndex returns the position of the result with the given id, or -1.
func (q *Questionnaire) ResultIndex(id string) int {
	for i := range q.Results {
		if q.Results[i].ID == id {
			return i
		}
	}
	return -1
}

// ResultIDs returns result ids in declaration order.
func (q *Questionnaire) ResultIDs() []string {
	ids := make([]string, len(q.Results))
	for i, r := range q.Results {
		ids[i] = r.ID
	}
	return ids
}

// OptionCounts returns the number of options of every question.
func (q *Questionnaire) OptionCounts() []int {
	counts := make([]int, len(q.Questions))
	for i, qu := range q.Questions {
		counts[i] = len(qu.Options)
	}
	return counts
}

// Matrix densifies option weights to [question][option][dimension].
func (q *Questionnaire) Matrix() score.Matrix {
	dims := q.DimIDs()
	m := make(score.Matrix, len(q.Questions))
	for qi, qu := range q.Questions {
		m[qi] = make([][]int, len(qu.Options))
		for oi, opt := range qu.Options {
			row := make([]int, len(dims))
			for di, d := range dims {
				row[di] = opt.Weight(d)
			}
			m[qi][oi] = row
		}
	}
	return m
}

// Compile resolves every result's conditions, in result order.
func (q *Questionnaire) Compile() ([][]condition.Compiled, error) {
	idx := q.DimIndex()
	out := make([][]condition.Compiled, len(q.Results))
	for i, r := range q.Results {
		cc, err := condition.CompileAll(r.Conditions, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: result %q: %w", ErrMalformedInput, r.ID, err)
		}
		out[i] = cc
	}
	return out, nil
}

// #endregion questionnaire
