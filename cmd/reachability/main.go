// Command reachability estimates the outcome distribution of a questionnaire
// by sampling and proves, per result, whether any answer path selects it.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/montecarlo"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/service"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

type flags struct {
	samples          int
	seed             int64
	samplingOnly     bool
	reachabilityOnly bool
	witness          bool
	ids              []string
	rankMode         string
	requireAll       bool
	jsonOut          bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "reachability",
		Short: "Sample outcome frequencies and prove result reachability",
		Args:  cli.ExactArgs(0),
	}
	opts := cli.Bind(cmd)
	fs := cmd.Flags()
	fs.IntVar(&f.samples, "samples", 200000, "random answer paths to sample")
	fs.Int64Var(&f.seed, "seed", 42, "sampling seed")
	fs.BoolVar(&f.samplingOnly, "sampling-only", false, "skip the reachability proof")
	fs.BoolVar(&f.reachabilityOnly, "reachability-only", false, "skip sampling")
	fs.BoolVar(&f.witness, "show-witness", false, "print one answer path per reachable result")
	fs.StringSliceVar(&f.ids, "ids", nil, "restrict the proof to these result ids")
	fs.StringVar(&f.rankMode, "rank-mode", "exact", "rank_is encoding: exact | relaxed")
	fs.BoolVar(&f.requireAll, "require-all", false, "exit 1 when any result is unreachable")
	fs.BoolVar(&f.jsonOut, "json", false, "output as JSON")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if f.samplingOnly && f.reachabilityOnly {
			return fmt.Errorf("%w: --sampling-only and --reachability-only are exclusive", cli.ErrUsage)
		}
		env, err := opts.Open(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		return run(cmd, env, f)
	}
	return cmd
}

// #endregion main

// #region run
type output struct {
	Distribution *montecarlo.Distribution `json:"distribution,omitempty"`
	Report       *reach.Report            `json:"report,omitempty"`
	Missed       []string                 `json:"missed,omitempty"`
}

func run(cmd *cobra.Command, env *cli.Env, f flags) error {
	ctx := cmd.Context()
	mode, err := cli.RankMode(f.rankMode)
	if err != nil {
		return err
	}
	q, err := env.Questionnaire()
	if err != nil {
		return err
	}

	var out output
	sreq := service.SampleRequest{Samples: f.samples, Seed: f.seed, Workers: env.Config.WorkerCount()}
	if !f.reachabilityOnly {
		d, err := service.Sample(ctx, q, sreq)
		if err != nil {
			return err
		}
		out.Distribution = &d
		env.Record(logging.KindSample, sreq, d, "ok", "")
	}

	rreq := env.ReachRequest()
	rreq.IDs = f.ids
	rreq.Witness = f.witness
	rreq.RankMode = mode
	if !f.samplingOnly {
		rep, err := service.Reach(ctx, q, rreq)
		if err != nil {
			return err
		}
		out.Report = &rep
		decision, reason := "ok", ""
		if un := rep.Unreachable(); len(un) > 0 {
			decision, reason = "unreachable", strings.Join(un, ",")
		}
		env.Record(logging.KindReach, rreq, rep, decision, reason)
	}
	if out.Distribution != nil && out.Report != nil {
		out.Missed = reach.Coverage(*out.Report, *out.Distribution)
	}

	if f.jsonOut {
		if err := env.PrintJSON(out); err != nil {
			return err
		}
	} else {
		printText(env, out, f.witness)
	}

	if f.requireAll && out.Report != nil {
		if un := out.Report.Unreachable(); len(un) > 0 {
			return fmt.Errorf("%w: %d unreachable: %s", cli.ErrCheckFailed, len(un), strings.Join(un, ", "))
		}
	}
	return nil
}

// #endregion run

// #region print
func printText(env *cli.Env, out output, witness bool) {
	w := env.Out
	if d := out.Distribution; d != nil {
		fmt.Fprintf(w, "Sampled distribution (%d paths):\n", d.Total)
		cli.WriteDistribution(w, *d)
		if unseen := d.Unseen(); len(unseen) > 0 {
			fmt.Fprintf(w, "Never sampled: %s\n", strings.Join(unseen, ", "))
		}
	}
	if rep := out.Report; rep != nil {
		if out.Distribution != nil {
			fmt.Fprintln(w)
		}
		reachable := 0
		for _, v := range rep.Verdicts {
			if v.Reachable {
				reachable++
			}
		}
		fmt.Fprintf(w, "Reachable: %d/%d\n", reachable, len(rep.Verdicts))
		if un := rep.Unreachable(); len(un) > 0 {
			fmt.Fprintf(w, "Unreachable: %s\n", strings.Join(un, ", "))
		}
		if witness {
			for _, v := range rep.Verdicts {
				if !v.Reachable {
					continue
				}
				note := ""
				if !v.Confirmed {
					note = " (unconfirmed)"
				}
				fmt.Fprintf(w, "  %-24s %v%s\n", v.ID, v.Witness, note)
			}
		}
	}
	if len(out.Missed) > 0 {
		fmt.Fprintf(w, "Reachable but never sampled: %s\n", strings.Join(out.Missed, ", "))
	}
}

// #endregion print
