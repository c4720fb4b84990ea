// Command ideal-path finds one answer path that makes a chosen result win.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/service"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var (
		resultID string
		list     bool
		rankMode string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "ideal-path",
		Short: "Find answer choices that lead to one result",
		Args:  cli.ExactArgs(0),
	}
	opts := cli.Bind(cmd)
	cmd.Flags().StringVar(&resultID, "result-id", "", "target result id")
	cmd.Flags().BoolVar(&list, "list-results", false, "list result ids and titles, then exit")
	cmd.Flags().StringVar(&rankMode, "rank-mode", "exact", "rank_is encoding: exact | relaxed")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if !list && resultID == "" {
			return fmt.Errorf("%w: provide --result-id or use --list-results", cli.ErrUsage)
		}
		mode, err := cli.RankMode(rankMode)
		if err != nil {
			return err
		}
		env, err := opts.Open(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		q, err := env.Questionnaire()
		if err != nil {
			return err
		}
		if list {
			for _, r := range q.Results {
				fmt.Fprintf(env.Out, "%s: %s\n", r.ID, codec.ExtraString(r.Extra, "title"))
			}
			return nil
		}

		req := env.ReachRequest()
		req.RankMode = mode
		ideal, err := service.IdealPath(cmd.Context(), q, resultID, req)
		if err != nil {
			return err
		}
		decision := "found"
		if !ideal.Reachable {
			decision = "none"
		}
		env.Record(logging.KindIdeal, map[string]any{"result_id": resultID, "request": req}, ideal, decision, "")

		if jsonOut {
			if err := env.PrintJSON(ideal); err != nil {
				return err
			}
		} else {
			printIdeal(env, q, ideal)
		}
		if !ideal.Reachable {
			return fmt.Errorf("%w: no answer path found for %s", cli.ErrCheckFailed, resultID)
		}
		return nil
	}
	return cmd
}

// #endregion main

// #region print
func printIdeal(env *cli.Env, q *quiz.Questionnaire, ideal reach.Ideal) {
	w := env.Out
	if !ideal.Reachable {
		fmt.Fprintf(w, "No answer path found for %s\n", ideal.ID)
		return
	}
	r := q.Results[q.ResultIndex(ideal.ID)]
	fmt.Fprintf(w, "Target result: %s (%s)\n", r.ID, codec.ExtraString(r.Extra, "title"))
	if !ideal.Confirmed {
		fmt.Fprintln(w, "warning: path found under relaxed rank_is does not replay to the target")
	}
	fmt.Fprintln(w, "\nPick these choices:")
	for i, oi := range ideal.Witness {
		text := codec.ExtraString(q.Questions[i].Options[oi].Extra, "text")
		fmt.Fprintf(w, "Q%d: option %d - %s\n", i+1, oi+1, text)
	}
	fmt.Fprintln(w, "\nFinal scores:")
	for i, dim := range q.DimIDs() {
		fmt.Fprintf(w, "%s: %d\n", dim, ideal.Scores[i])
	}
}

// #endregion print
