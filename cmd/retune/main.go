// Command retune anneals option weights and result thresholds toward target
// outcome percentages, validates the best snapshot on an independent sample
// and optionally writes it back.
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
	"github.com/danielpatrickdp/quiz-calibrator/internal/service"
	"github.com/danielpatrickdp/quiz-calibrator/internal/store"
	"github.com/danielpatrickdp/quiz-calibrator/internal/tune"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

// goalFlag binds one float flag to a Goals field. The flag only overrides the
// goals file when it is set explicitly.
type goalFlag struct {
	name  string
	usage string
	field func(*tune.Goals) *float64
	value float64
}

func goalFlags() []*goalFlag {
	return []*goalFlag{
		{name: "non-top-target", usage: "target percent for ordinary results", field: func(g *tune.Goals) *float64 { return &g.NonTop.Percent }},
		{name: "non-top-tol", usage: "tolerance percent for ordinary results", field: func(g *tune.Goals) *float64 { return &g.NonTop.Tolerance }},
		{name: "top-target", usage: "target percent for top results", field: func(g *tune.Goals) *float64 { return &g.Top.Percent }},
		{name: "top-tol", usage: "tolerance percent for top results", field: func(g *tune.Goals) *float64 { return &g.Top.Tolerance }},
		{name: "equilibrium-target", usage: "target percent for the equilibrium result", field: func(g *tune.Goals) *float64 { return &g.Equilibrium.Percent }},
		{name: "equilibrium-tol", usage: "tolerance percent for the equilibrium result", field: func(g *tune.Goals) *float64 { return &g.Equilibrium.Tolerance }},
		{name: "fallback-max", usage: "max percent for the fallback", field: func(g *tune.Goals) *float64 { return &g.FallbackMax }},
		{name: "non-top-weight", usage: "objective weight for ordinary results", field: func(g *tune.Goals) *float64 { return &g.NonTop.Weight }},
		{name: "top-weight", usage: "objective weight for top results", field: func(g *tune.Goals) *float64 { return &g.Top.Weight }},
		{name: "equilibrium-weight", usage: "objective weight for the equilibrium result", field: func(g *tune.Goals) *float64 { return &g.Equilibrium.Weight }},
		{name: "fallback-overflow-weight", usage: "objective weight for fallback overflow above fallback-max", field: func(g *tune.Goals) *float64 { return &g.FallbackOverflowWeight }},
		{name: "zero-hit-penalty", usage: "penalty when a non-fallback result gets zero hits", field: func(g *tune.Goals) *float64 { return &g.ZeroHitPenalty }},
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg       = tune.DefaultConfig()
		goalsFile string
		save      bool
		gflags    = goalFlags()
	)
	cmd := &cobra.Command{
		Use:   "retune",
		Short: "Retune weights and result thresholds toward target percentages",
		Args:  cli.ExactArgs(0),
	}
	opts := cli.Bind(cmd)
	fs := cmd.Flags()
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "optimisation sample size")
	fs.IntVar(&cfg.FinalSamples, "final-samples", cfg.FinalSamples, "validation sample size (0 skips validation)")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "annealing iterations")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.Float64Var(&cfg.WeightMutationProb, "weight-mutation-prob", cfg.WeightMutationProb, "probability of mutating a weight rather than a result field")
	fs.Float64Var(&cfg.MacroMoveProb, "macro-move-prob", cfg.MacroMoveProb, "probability of shifting one option/dimension across every question")
	fs.StringVar(&goalsFile, "goals", "", "YAML goals file (defaults to QUIZCAL_GOALS)")
	fs.BoolVar(&save, "save", false, "write the tuned files, keeping .bak copies")
	defaults := tune.DefaultGoals()
	for _, gf := range gflags {
		fs.Float64Var(&gf.value, gf.name, *gf.field(&defaults), gf.usage)
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if cfg.Samples <= 0 || cfg.Iterations < 0 || cfg.FinalSamples < 0 {
			return fmt.Errorf("%w: samples must be positive and iterations non-negative", cli.ErrUsage)
		}
		env, err := opts.Open(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if !cmd.Flags().Changed("goals") {
			goalsFile = env.Config.GoalsFile
		}
		goals, err := tune.LoadGoals(goalsFile)
		if err != nil {
			return fmt.Errorf("%w: %v", cli.ErrUsage, err)
		}
		for _, gf := range gflags {
			if cmd.Flags().Changed(gf.name) {
				*gf.field(&goals) = gf.value
			}
		}
		cfg.Workers = env.Config.WorkerCount()
		return run(cmd, env, cfg, goals, save)
	}
	return cmd
}

// #endregion main

// #region run
type summary struct {
	Initial    float64  `json:"initial"`
	Objective  float64  `json:"objective"`
	Validation *float64 `json:"validation,omitempty"`
	Accepted   int      `json:"accepted"`
	Rejected   int      `json:"rejected"`
	Improved   int      `json:"improved"`
	Saved      bool     `json:"saved"`
}

func run(cmd *cobra.Command, env *cli.Env, cfg tune.Config, goals tune.Goals, save bool) error {
	w := env.Out
	q, err := env.Questionnaire()
	if err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	space := tune.BuildSpace(q, goals.Roles)
	fmt.Fprintf(w, "Loaded: %d questions, %d results, %d weight params, %d result params\n",
		len(q.Questions), len(q.Results), len(space.Weights), len(space.Results))
	fmt.Fprintf(w, "Targets: non-top=%g%%±%g, top=%g%%±%g, equilibrium=%g%%±%g, fallback<=%g%%\n",
		goals.NonTop.Percent, goals.NonTop.Tolerance,
		goals.Top.Percent, goals.Top.Tolerance,
		goals.Equilibrium.Percent, goals.Equilibrium.Tolerance,
		goals.FallbackMax)

	out, err := service.Tune(cmd.Context(), q, service.TuneRequest{
		Goals:  goals,
		Config: cfg,
		Progress: func(p tune.Progress) {
			fmt.Fprintf(w, "iter %d/%d | cur=%.4f best=%.4f | elapsed=%.1fs\n",
				p.Iteration, p.Iterations, p.Current, p.Best, p.Elapsed.Seconds())
		},
	})
	if err != nil {
		if out != nil {
			fmt.Fprintf(w, "\nInterrupted; best objective so far: %.6f (nothing saved)\n", out.Objective)
		}
		return err
	}

	fmt.Fprintf(w, "\nInitial objective: %.6f\n", out.Initial)
	fmt.Fprintf(w, "Best objective (optimization sample): %.6f\n", out.Objective)
	cli.WriteDistribution(w, out.Distribution)
	s := summary{
		Initial:   out.Initial,
		Objective: out.Objective,
		Accepted:  out.Accepted,
		Rejected:  out.Rejected,
		Improved:  out.Improved,
	}
	if v := out.Validation; v != nil {
		fmt.Fprintf(w, "\nValidation objective (%d samples): %.6f\n", v.Distribution.Total, v.Objective)
		cli.WriteDistribution(w, v.Distribution)
		s.Validation = &v.Objective
	}

	decision := "dry_run"
	if save {
		if err := persist(env, q, out.Questionnaire, s); err != nil {
			return err
		}
		s.Saved = true
		decision = "saved"
		fmt.Fprintln(w, "\nSaved tuned files. Backups: questions.json.bak, results.json.bak")
	}
	env.Record(logging.KindTune, map[string]any{"config": cfg, "goals": goals}, s, decision, "")
	return nil
}

// persist writes the tuned questionnaire to the data directory and, with a
// store, commits it as a new snapshot. An empty history first gets the
// pre-tuning questionnaire as its root.
func persist(env *cli.Env, before, after *quiz.Questionnaire, s summary) error {
	if err := quiz.Save(after, env.Config.DataDir); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if env.Store == nil {
		return nil
	}
	if _, err := env.Store.GetCurrent(); errors.Is(err, store.ErrNotFound) {
		if _, err := env.Store.CommitQuestionnaire(before, "import", ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	metrics, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	snap, err := env.Store.CommitQuestionnaire(after, "retune", string(metrics))
	if err != nil {
		return err
	}
	env.Log.Info().Str("version_id", snap.VersionID).Msg("committed snapshot")
	return nil
}

// #endregion run
