package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/resolve"
)

// #region types
// Case is one answer path with the result it is expected to resolve to.
type Case struct {
	Name     string
	Path     []int
	Expected string
}

// Result captures the outcome of replaying one case.
type Result struct {
	Name     string
	Path     []int
	Expected string
	Got      string
	Match    bool
	Reason   string // why the path could not be replayed, if it could not
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total    int
	Matches  int
	Diverged int
}

// #endregion types

// #region replay
// Replay resolves every case against q. A path that does not fit q (wrong
// length, option out of range) is a divergence, not an error; only a
// questionnaire that cannot be resolved at all fails the run.
func Replay(ctx context.Context, q *quiz.Questionnaire, cases []Case) ([]Result, error) {
	log := zerolog.Ctx(ctx).With().Str("component", "replay").Logger()
	r, err := resolve.New(q)
	if err != nil {
		return nil, err
	}
	m := q.Matrix()
	counts := q.OptionCounts()

	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := Result{Name: c.Name, Path: c.Path, Expected: c.Expected}
		if reason := checkPath(c.Path, counts); reason != "" {
			res.Reason = reason
		} else {
			win, err := r.Resolve(m.Profile(c.Path))
			if err != nil {
				return nil, fmt.Errorf("replay %s: %w", c.Name, err)
			}
			res.Got = r.ID(win)
			res.Match = res.Got == c.Expected
		}
		if !res.Match {
			log.Warn().Str("case", c.Name).Str("expected", c.Expected).Str("got", res.Got).Str("reason", res.Reason).Msg("diverged")
		}
		results = append(results, res)
	}
	return results, nil
}

func checkPath(path, counts []int) string {
	if len(path) != len(counts) {
		return fmt.Sprintf("path has %d answers, questionnaire has %d questions", len(path), len(counts))
	}
	for i, o := range path {
		if o < 0 || o >= counts[i] {
			return fmt.Sprintf("answer %d: option %d out of range [0,%d)", i+1, o, counts[i])
		}
	}
	return ""
}

// Summarize counts matches and divergences.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Match {
			s.Matches++
		}
	}
	s.Diverged = s.Total - s.Matches
	return s
}

// #endregion replay
