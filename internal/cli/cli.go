// Package cli holds the wiring shared by every command under cmd/: persistent
// flags over the environment config, logging, the optional run store and the
// exit-code convention (2 usage or input, 1 failed check, 0 ok).
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/config"
	"github.com/danielpatrickdp/quiz-calibrator/internal/logging"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/reach"
	"github.com/danielpatrickdp/quiz-calibrator/internal/service"
	"github.com/danielpatrickdp/quiz-calibrator/internal/smt"
	"github.com/danielpatrickdp/quiz-calibrator/internal/store"
)

var (
	// ErrUsage marks bad flags or arguments.
	ErrUsage = errors.New("usage")
	// ErrCheckFailed marks a run that completed but whose check did not pass.
	ErrCheckFailed = errors.New("check failed")
)

// #region exit-codes
// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrCheckFailed):
		return 1
	case errors.Is(err, ErrUsage),
		errors.Is(err, quiz.ErrMalformedInput),
		errors.Is(err, reach.ErrUnknownResultID),
		errors.Is(err, smt.ErrSolverUnavailable):
		return 2
	}
	return 1
}

// Execute runs root with an interrupt-aware context and returns the exit code.
func Execute(root *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v\n%s", ErrUsage, err, c.UsageString())
	})
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return ExitCode(err)
}

// ExactArgs is cobra.ExactArgs reported as a usage error.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return nil
	}
}

// #endregion exit-codes

// #region options
// Options are the persistent flags every tool accepts. A flag that is set
// overrides the environment.
type Options struct {
	EnvFile    string
	DataDir    string
	DB         string
	Workers    int
	Solver     string
	SolverPath string
	LogLevel   string
	LogJSON    bool
}

// Bind registers the persistent flags on root.
func Bind(root *cobra.Command) *Options {
	o := &Options{}
	f := root.PersistentFlags()
	f.StringVar(&o.EnvFile, "env-file", ".env", "dotenv file read before the environment")
	f.StringVar(&o.DataDir, "data", "", "questionnaire directory (settings/questions/results.json)")
	f.StringVar(&o.DB, "db", "", "SQLite file for snapshot history and the run log")
	f.IntVar(&o.Workers, "workers", 0, "worker count (0 = one per CPU)")
	f.StringVar(&o.Solver, "solver", "", "reachability backend: search | smtlib")
	f.StringVar(&o.SolverPath, "solver-path", "", "external SMT-LIB solver executable")
	f.StringVar(&o.LogLevel, "log-level", "", "trace | debug | info | warn | error")
	f.BoolVar(&o.LogJSON, "log-json", false, "log JSON lines instead of console text")
	return o
}

// #endregion options

// #region env
// Env is the resolved runtime of one command.
type Env struct {
	Config *config.Config
	Log    zerolog.Logger
	Store  *store.Store // nil when no database is configured
	Out    io.Writer
}

// Open resolves configuration for cmd, sets up logging, attaches the logger
// to the command context and opens the store when one is configured.
func (o *Options) Open(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = o.DataDir
	}
	if flags.Changed("db") {
		cfg.DB = o.DB
	}
	if flags.Changed("workers") {
		cfg.Workers = o.Workers
	}
	if flags.Changed("solver") {
		cfg.Solver = o.Solver
	}
	if flags.Changed("solver-path") {
		cfg.SolverPath = o.SolverPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = o.LogJSON
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logger = logger.With().Str("cmd", cmd.Name()).Logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx))

	env := &Env{Config: cfg, Log: logger, Out: cmd.OutOrStdout()}
	if cfg.DB != "" {
		st, err := store.NewStore(cfg.DB)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}
	return env, nil
}

// Close releases the store.
func (e *Env) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

// Questionnaire loads the questionnaire from the data directory.
func (e *Env) Questionnaire() (*quiz.Questionnaire, error) {
	return quiz.Load(e.Config.DataDir)
}

// ReachRequest returns a request carrying the configured solver and workers.
func (e *Env) ReachRequest() service.ReachRequest {
	return service.ReachRequest{
		Workers:    e.Config.WorkerCount(),
		Solver:     e.Config.Solver,
		SolverPath: e.Config.SolverPath,
	}
}

// Record writes a run_log row when a store is configured. Failures are
// logged, never returned: the run itself already happened.
func (e *Env) Record(kind string, params, outcome any, decision, reason string) {
	if e.Store == nil {
		return
	}
	entry, err := logging.NewRunEntry(kind, params, outcome)
	if err != nil {
		e.Log.Warn().Err(err).Str("kind", kind).Msg("run log entry")
		return
	}
	if cur, err := e.Store.GetCurrent(); err == nil {
		entry.VersionID = cur.VersionID
	}
	entry.Decision = decision
	entry.Reason = reason
	id, err := logging.LogRun(e.Store.DB(), entry)
	if err != nil {
		e.Log.Warn().Err(err).Str("kind", kind).Msg("run log write")
		return
	}
	e.Log.Debug().Str("run_id", id).Str("kind", kind).Msg("recorded")
}

// PrintJSON writes v to Out as indented JSON.
func (e *Env) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(e.Out, string(data))
	return err
}

// #endregion env
