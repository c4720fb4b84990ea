package quiz

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
)

// Paths locates the three data files of a questionnaire.
type Paths struct {
	Settings  string
	Questions string
	Results   string
}

// DataPaths returns the conventional file names inside dir.
func DataPaths(dir string) Paths {
	return Paths{
		Settings:  filepath.Join(dir, "settings.json"),
		Questions: filepath.Join(dir, "questions.json"),
		Results:   filepath.Join(dir, "results.json"),
	}
}

type settingsFile struct {
	Dimensions     []Dimension `json:"dimensions"`
	FallbackResult string      `json:"fallback_result,omitempty"`
}

type questionsFile struct {
	Questions []Question `json:"questions"`
}

type resultsFile struct {
	Results []Result `json:"results"`
}

// #region load
// Load reads and validates the questionnaire stored in dir.
func Load(dir string) (*Questionnaire, error) {
	return LoadFiles(DataPaths(dir))
}

// LoadFiles reads and validates a questionnaire from explicit paths.
func LoadFiles(p Paths) (*Questionnaire, error) {
	var parts [3][]byte
	for i, path := range []string{p.Settings, p.Questions, p.Results} {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		parts[i] = data
	}
	q, err := fromParts(parts[0], parts[1], parts[2])
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Dir(p.Results), err)
	}
	return q, nil
}

func fromParts(settings, questions, results []byte) (*Questionnaire, error) {
	var (
		s   settingsFile
		qf  questionsFile
		rf  resultsFile
		q   Questionnaire
		err error
	)
	if q.SettingsMeta, err = codec.DecodeObject(settings, &s); err != nil {
		return nil, fmt.Errorf("%w: settings: %v", ErrMalformedInput, err)
	}
	if q.QuestionsMeta, err = codec.DecodeObject(questions, &qf); err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrMalformedInput, err)
	}
	if q.ResultsMeta, err = codec.DecodeObject(results, &rf); err != nil {
		return nil, fmt.Errorf("%w: results: %v", ErrMalformedInput, err)
	}

	q.Dimensions = s.Dimensions
	q.Questions = qf.Questions
	q.Results = rf.Results
	q.Fallback = s.FallbackResult
	if q.Fallback == "" {
		q.Fallback = q.DetectFallback()
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// #endregion load

// #region save
// Save writes questions.json and results.json into dir, copying the previous
// files to *.json.bak first. Settings are never rewritten.
func Save(q *Questionnaire, dir string) error {
	return SaveFiles(q, DataPaths(dir))
}

// SaveFiles is Save with explicit paths.
func SaveFiles(q *Questionnaire, p Paths) error {
	for _, path := range []string{p.Questions, p.Results} {
		if err := codec.Backup(path); err != nil {
			return err
		}
	}
	qb, err := q.encodeQuestions()
	if err != nil {
		return err
	}
	if err := codec.WriteFile(p.Questions, json.RawMessage(qb)); err != nil {
		return err
	}
	rb, err := q.encodeResults()
	if err != nil {
		return err
	}
	return codec.WriteFile(p.Results, json.RawMessage(rb))
}

func (q *Questionnaire) encodeSettings() ([]byte, error) {
	s := settingsFile{Dimensions: q.Dimensions}
	if q.Fallback != q.DetectFallback() {
		s.FallbackResult = q.Fallback
	}
	return codec.EncodeObject(s, q.SettingsMeta)
}

func (q *Questionnaire) encodeQuestions() ([]byte, error) {
	b, err := codec.EncodeObject(questionsFile{Questions: q.Questions}, q.QuestionsMeta)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	return b, nil
}

func (q *Questionnaire) encodeResults() ([]byte, error) {
	b, err := codec.EncodeObject(resultsFile{Results: q.Results}, q.ResultsMeta)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return b, nil
}

// #endregion save

// #region document
// document carries all three files in one object, for snapshots and fixtures.
type document struct {
	Settings  json.RawMessage `json:"settings"`
	Questions json.RawMessage `json:"questions"`
	Results   json.RawMessage `json:"results"`
}

// Encode serializes the whole questionnaire as one JSON document.
func Encode(q *Questionnaire) ([]byte, error) {
	var (
		doc document
		err error
	)
	if doc.Settings, err = q.encodeSettings(); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if doc.Questions, err = q.encodeQuestions(); err != nil {
		return nil, err
	}
	if doc.Results, err = q.encodeResults(); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Decode parses and validates a document written by Encode.
func Decode(data []byte) (*Questionnaire, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: document: %v", ErrMalformedInput, err)
	}
	return fromParts(doc.Settings, doc.Questions, doc.Results)
}

// #endregion document
