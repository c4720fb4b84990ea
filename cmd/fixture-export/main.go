// Command fixture-export proves reachability with witnesses and writes one
// replay case per reachable result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/replay"
	"github.com/danielpatrickdp/quiz-calibrator/internal/service"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var (
		outPath     string
		description string
		embed       bool
		ids         []string
		rankMode    string
	)
	cmd := &cobra.Command{
		Use:   "fixture-export",
		Short: "Export witness paths as a replay fixture",
		Args:  cli.ExactArgs(0),
	}
	opts := cli.Bind(cmd)
	cmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	cmd.Flags().StringVar(&description, "description", "", "fixture description")
	cmd.Flags().BoolVar(&embed, "embed", true, "embed the questionnaire in the fixture")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "export only these result ids")
	cmd.Flags().StringVar(&rankMode, "rank-mode", "exact", "rank_is encoding: exact | relaxed")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if outPath == "" {
			return fmt.Errorf("%w: --out is required", cli.ErrUsage)
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
		req := env.ReachRequest()
		req.IDs = ids
		req.Witness = true
		req.RankMode = mode
		rep, err := service.Reach(cmd.Context(), q, req)
		if err != nil {
			return err
		}
		env.Record(logging.KindReach, req, rep, "export", outPath)

		if description == "" {
			description = fmt.Sprintf("witness paths for %d results of %s", len(rep.Verdicts), env.Config.DataDir)
		}
		f := replay.FromReport(description, rep)
		if embed {
			if err := f.Embed(q); err != nil {
				return err
			}
		}
		if err := replay.WriteFixture(outPath, f); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Wrote %d cases to %s\n", len(f.Cases), outPath)
		if skipped := len(rep.Verdicts) - len(f.Cases); skipped > 0 {
			fmt.Fprintf(env.Out, "Skipped %d unreachable or unconfirmed results\n", skipped)
		}
		return nil
	}
	return cmd
}

// #endregion main
