// Command inspect browses the snapshot history and run log of a store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/quiz-calibrator/internal/cli"
	"github.com/danielpatrickdp/quiz-calibrator/internal/quiz"
	"github.com/danielpatrickdp/quiz-calibrator/internal/store"
)

// #region main
func main() {
	os.Exit(cli.Execute(newRootCmd()))
}

func newRootCmd() *cobra.Command {
	var (
		last    int
		version string
		jsonOut bool
	)
	root := &cobra.Command{
		Use:   "inspect",
		Short: "List questionnaire snapshots, show one, or roll back",
		Args:  cli.ExactArgs(0),
	}
	opts := cli.Bind(root)
	root.PersistentFlags().IntVar(&last, "last", 20, "show N most recent entries")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	root.Flags().StringVar(&version, "version", "", "show single version detail")

	// open requires a store: inspect has nothing to read without one.
	open := func(cmd *cobra.Command) (*cli.Env, error) {
		env, err := opts.Open(cmd)
		if err != nil {
			return nil, err
		}
		if env.Store == nil {
			env.Close()
			return nil, fmt.Errorf("%w: --db (or QUIZCAL_DB) is required", cli.ErrUsage)
		}
		return env, nil
	}

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		env, err := open(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		if version != "" {
			return runDetail(env, version, jsonOut)
		}
		return runList(env, last, jsonOut)
	}

	var kind string
	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			return runRuns(env, kind, last, jsonOut)
		},
	}
	runs.Flags().StringVar(&kind, "kind", "", "filter by run kind (sample, reach, ideal_path, tune, replay)")

	var write bool
	rollback := &cobra.Command{
		Use:   "rollback <version-id>",
		Short: "Make an earlier snapshot the active one",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			return runRollback(env, args[0], write)
		},
	}
	rollback.Flags().BoolVar(&write, "write", false, "also write the snapshot into the data directory")

	var label string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Commit the data directory as a new active snapshot",
		Args:  cli.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()
			q, err := env.Questionnaire()
			if err != nil {
				return err
			}
			snap, err := env.Store.CommitQuestionnaire(q, label, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Committed %s (%s)\n", snap.VersionID, snap.Label)
			return nil
		},
	}
	imp.Flags().StringVar(&label, "label", "import", "snapshot label")

	root.AddCommand(runs, rollback, imp)
	return root
}

// #endregion main

// #region list-mode
type listRow struct {
	VersionID string `json:"version_id"`
	ParentID  string `json:"parent_id,omitempty"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
	Questions int    `json:"questions"`
	Results   int    `json:"results"`
	Metrics   string `json:"metrics,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toRow(s store.Snapshot, active string) (listRow, error) {
	q, err := s.Questionnaire()
	if err != nil {
		return listRow{}, fmt.Errorf("version %s: %w", s.VersionID, err)
	}
	return listRow{
		VersionID: s.VersionID,
		ParentID:  s.ParentID,
		Label:     s.Label,
		Active:    s.VersionID == active,
		Questions: len(q.Questions),
		Results:   len(q.Results),
		Metrics:   s.MetricsJSON,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}

func activeID(env *cli.Env) (string, error) {
	cur, err := env.Store.GetCurrent()
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	return cur.VersionID, err
}

func runList(env *cli.Env, last int, jsonOut bool) error {
	versions, err := env.Store.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(env.Out, "no versions found")
		return nil
	}
	active, err := activeID(env)
	if err != nil {
		return err
	}

	// Store returns DESC; print chronologically.
	rows := make([]listRow, len(versions))
	for i, v := range versions {
		r, err := toRow(v, active)
		if err != nil {
			return err
		}
		rows[len(versions)-1-i] = r
	}
	if jsonOut {
		return env.PrintJSON(rows)
	}

	w := env.Out
	fmt.Fprintf(w, "%-1s %-12s  %-12s  %-10s  %9s  %7s  %s\n",
		"", "Version", "Parent", "Label", "Questions", "Results", "Time")
	fmt.Fprintf(w, "%-1s %-12s+-%-12s+-%-10s+-%9s+-%7s+-%s\n",
		"", "------------", "------------", "----------", "---------", "-------", "--------------------")
	for _, r := range rows {
		mark := ""
		if r.Active {
			mark = "*"
		}
		parent := shortID(r.ParentID)
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(w, "%-1s %-12s  %-12s  %-10s  %9d  %7d  %s\n",
			mark, shortID(r.VersionID), parent, r.Label, r.Questions, r.Results, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode
type detailOutput struct {
	listRow
	Fallback   string         `json:"fallback"`
	Dimensions []string       `json:"dimensions"`
	Priorities map[string]int `json:"priorities"`
}

func runDetail(env *cli.Env, versionID string, jsonOut bool) error {
	s, err := env.Store.GetVersion(versionID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", cli.ErrUsage, err)
	}
	if err != nil {
		return err
	}
	active, err := activeID(env)
	if err != nil {
		return err
	}
	row, err := toRow(s, active)
	if err != nil {
		return err
	}
	q, err := s.Questionnaire()
	if err != nil {
		return err
	}
	out := detailOutput{listRow: row, Fallback: q.Fallback, Dimensions: q.DimIDs(), Priorities: map[string]int{}}
	for _, r := range q.Results {
		out.Priorities[r.ID] = r.Priority
	}
	if jsonOut {
		return env.PrintJSON(out)
	}

	w := env.Out
	fmt.Fprintf(w, "Version:    %s\n", out.VersionID)
	fmt.Fprintf(w, "Parent:     %s\n", out.ParentID)
	fmt.Fprintf(w, "Label:      %s\n", out.Label)
	fmt.Fprintf(w, "Active:     %v\n", out.Active)
	fmt.Fprintf(w, "Created:    %s\n", out.CreatedAt)
	fmt.Fprintf(w, "Questions:  %d\n", out.Questions)
	fmt.Fprintf(w, "Dimensions: %v\n", out.Dimensions)
	fmt.Fprintf(w, "Fallback:   %s\n", out.Fallback)
	if out.Metrics != "" {
		fmt.Fprintf(w, "Metrics:    %s\n", out.Metrics)
	}
	fmt.Fprintf(w, "\nResults (priority):\n")
	for _, r := range q.Results {
		fmt.Fprintf(w, "  %-24s %3d\n", r.ID, r.Priority)
	}
	return nil
}

// #endregion detail-mode

// #region runs
func runRuns(env *cli.Env, kind string, last int, jsonOut bool) error {
	runs, err := env.Store.ListRuns(kind, last)
	if err != nil {
		return err
	}
	if jsonOut {
		return env.PrintJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(env.Out, "no runs found")
		return nil
	}
	w := env.Out
	fmt.Fprintf(w, "%-12s  %-10s  %-12s  %-12s  %s\n", "Run", "Kind", "Version", "Decision", "Time")
	for _, r := range runs {
		version := shortID(r.VersionID)
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%-12s  %-10s  %-12s  %-12s  %s\n",
			shortID(r.RunID), r.Kind, version, r.Decision, r.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion runs

// #region rollback
func runRollback(env *cli.Env, versionID string, write bool) error {
	if err := env.Store.Rollback(versionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %v", cli.ErrUsage, err)
		}
		return err
	}
	fmt.Fprintf(env.Out, "Active version: %s\n", versionID)
	if !write {
		return nil
	}
	s, err := env.Store.GetVersion(versionID)
	if err != nil {
		return err
	}
	q, err := s.Questionnaire()
	if err != nil {
		return err
	}
	if err := quiz.Save(q, env.Config.DataDir); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	fmt.Fprintf(env.Out, "Wrote %s into %s\n", shortID(versionID), env.Config.DataDir)
	return nil
}

// #endregion rollback

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
