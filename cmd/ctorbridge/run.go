package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/wippyai/ctorbridge/manifest"
	"github.com/wippyai/ctorbridge/runtime"
)

type runOptions struct {
	only      []string
	parallel  int
	durations bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Execute the runs of a manifest and check their expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, m, err := root.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			runs, err := selectRuns(m.Runs, opts.only)
			if err != nil {
				return err
			}

			parallel := root.cfg.Parallel
			if cmd.Flags().Changed("parallel") {
				parallel = opts.parallel
			}
			results := rt.ExecuteAll(ctx, runs, parallel)
			return report(cmd.OutOrStdout(), results, opts.durations)
		},
	}

	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "run only the named runs")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 4, "runs in flight (overrides CTORBRIDGE_PARALLEL)")
	cmd.Flags().BoolVar(&opts.durations, "durations", false, "print run durations")

	return cmd
}

func selectRuns(runs []manifest.Run, only []string) ([]manifest.Run, error) {
	if len(only) == 0 {
		return runs, nil
	}
	var out []manifest.Run
	for _, name := range only {
		i := slices.IndexFunc(runs, func(r manifest.Run) bool { return r.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("no run named %q", name)
		}
		out = append(out, runs[i])
	}
	return out, nil
}

// errRunsFailed is returned when at least one run missed its expectation.
type errRunsFailed struct {
	failed, total int
}

func (e errRunsFailed) Error() string {
	return fmt.Sprintf("%d of %d runs failed", e.failed, e.total)
}

func report(w io.Writer, results []runtime.Result, durations bool) error {
	failed := 0
	for _, res := range results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%s %s", status, res.Run.Name)
		if durations {
			fmt.Fprintf(w, " (%s)", res.Duration)
		}
		if !res.Passed() {
			fmt.Fprintf(w, ": %s", res.Failure)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d runs, %d passed, %d failed\n", len(results), len(results)-failed, failed)

	if failed > 0 {
		return errRunsFailed{failed: failed, total: len(results)}
	}
	return nil
}
