// Command replay re-runs recorded answer paths against a questionnaire and
// reports every path whose winner changed.
package main

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/replay"
	"github.com/danielpatrickdp/quiz-calibrator/internal/store"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var (
		fixturePath string
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay fixture or recorded witness paths and compare winners",
		Long: `replay --fixture path/to/fixture.json [--data dir]
replay --db path/to/quizcal.db

Fixture mode uses the fixture's embedded questionnaire unless --data is given.
DB mode replays the witnesses of the latest reachability run against the
active snapshot.`,
		Args: cli.ExactArgs(0),
	}
	opts := cli.Bind(cmd)
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture JSON (fixture mode)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		env, err := opts.Open(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		var (
			q     *quiz.Questionnaire
			cases []replay.Case
		)
		if fixturePath != "" {
			q, cases, err = fromFixture(env, fixturePath, cmd.Flags().Changed("data"))
		} else {
			q, cases, err = fromStore(env)
		}
		if err != nil {
			return err
		}

		results, err := replay.Replay(cmd.Context(), q, cases)
		if err != nil {
			return err
		}
		sum := replay.Summarize(results)
		decision := "match"
		if sum.Diverged > 0 {
			decision = "diverged"
		}
		env.Record(logging.KindReplay, map[string]any{"fixture": fixturePath, "cases": len(cases)}, sum, decision, "")

		if jsonOut {
			if err := env.PrintJSON(results); err != nil {
				return err
			}
		} else {
			printComparison(env, results, sum)
		}
		if sum.Diverged > 0 {
			return fmt.Errorf("%w: %d of %d paths diverged", cli.ErrCheckFailed, sum.Diverged, sum.Total)
		}
		return nil
	}
	return cmd
}

// #endregion main

// #region sources
func fromFixture(env *cli.Env, path string, dataSet bool) (*quiz.Questionnaire, []replay.Case, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cli.ErrUsage, err)
	}
	var q *quiz.Questionnaire
	if !dataSet {
		if q, err = f.EmbeddedQuestionnaire(); err != nil {
			return nil, nil, err
		}
	}
	if q == nil {
		if q, err = env.Questionnaire(); err != nil {
			return nil, nil, err
		}
	}
	return q, f.ToCases(), nil
}

// fromStore pairs the active snapshot with the witnesses of the most recent
// reachability run.
func fromStore(env *cli.Env) (*quiz.Questionnaire, []replay.Case, error) {
	if env.Store == nil {
		return nil, nil, fmt.Errorf("%w: provide --fixture or --db", cli.ErrUsage)
	}
	runs, err := env.Store.ListRuns(logging.KindReach, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(runs) == 0 {
		return nil, nil, fmt.Errorf("%w: no reachability runs recorded", cli.ErrUsage)
	}
	var rep reach.Report
	if err := json.Unmarshal([]byte(runs[0].OutcomeJSON), &rep); err != nil {
		return nil, nil, fmt.Errorf("decode run %s: %w", runs[0].RunID, err)
	}
	cases := replay.FromReport("", rep).ToCases()
	if len(cases) == 0 {
		return nil, nil, fmt.Errorf("%w: run %s recorded no witnesses (rerun reachability with --show-witness)", cli.ErrUsage, runs[0].RunID)
	}

	snap, err := env.Store.GetCurrent()
	if errors.Is(err, store.ErrNotFound) {
		env.Log.Info().Msg("no active snapshot, replaying against the data directory")
		q, err := env.Questionnaire()
		return q, cases, err
	}
	if err != nil {
		return nil, nil, err
	}
	q, err := snap.Questionnaire()
	if err != nil {
		return nil, nil, err
	}
	return q, cases, nil
}

// #endregion sources

// #region output
func printComparison(env *cli.Env, results []replay.Result, sum replay.Summary) {
	w := env.Out
	fmt.Fprintf(w, "%-24s| %-22s| %-22s| %s\n", "Case", "Expected", "Replayed", "Match")
	fmt.Fprintf(w, "%-24s+%-23s+%-23s+%s\n",
		"------------------------", "-----------------------", "-----------------------", "------")
	for _, r := range results {
		got := r.Got
		if r.Reason != "" {
			got = "(" + r.Reason + ")"
		}
		mark := "yes"
		if !r.Match {
			mark = "NO"
		}
		fmt.Fprintf(w, "%-24s| %-22s| %-22s| %s\n", r.Name, r.Expected, got, mark)
	}
	fmt.Fprintf(w, "\nSummary: %d total, %d match, %d diverge\n", sum.Total, sum.Matches, sum.Diverged)
}

// #endregion output
