package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/homewalk/internal/automation"
	"github.com/san-kum/homewalk/internal/viz"
)

var (
	epsMin     float64
	epsMax     float64
	sweepSteps int
)

func newScenarioCmds() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario <file>",
		Short: "run a scripted sequence of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSolverFlags(scenarioCmd)
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "relaxation sweeps and accuracy across tolerances",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&method, "method", "gauss-seidel", "relaxation method (jacobi, gauss-seidel)")
	sweepCmd.Flags().StringVar(&store, "storage", "", "matrix storage (dense, sparse)")
	sweepCmd.Flags().Float64Var(&epsMin, "eps-min", 1e-12, "tightest tolerance")
	sweepCmd.Flags().Float64Var(&epsMax, "eps-max", 1e-2, "loosest tolerance")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 6, "number of tolerances")

	return []*cobra.Command{scenarioCmd, sweepCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Title.Render(sc.Name))
	if sc.Description != "" {
		fmt.Fprintln(out, viz.Subtle.Render(sc.Description))
	}

	results, runErr := automation.RunScenario(cmd.Context(), sc, runner, params(), log.WithName("scenario"))
	for i, res := range results {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, res.Step.Kind)
		switch {
		case res.Comparison != nil:
			fmt.Fprint(out, viz.ComparisonTable(res.Comparison))
		case res.Verify != nil:
			fmt.Fprintln(out, viz.VerifyTable(res.Verify))
		case res.Timing != nil:
			names := res.Step.Methods
			if len(names) == 0 {
				names = runner.Registry().ListMethods()
			}
			fmt.Fprintln(out, viz.TimingTable(names, res.Timing))
		default:
			fmt.Fprintf(out, "%d solutions\n", len(res.Results))
		}
		if noSave || len(res.Results) == 0 {
			continue
		}
		id, err := saveRun(res.Step.Kind, res.Comparison, res.Results)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved: %s\n", id)
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	m, err := relaxMethod(method)
	if err != nil {
		return err
	}
	kind, err := runner.Registry().GetStorage(cfg.Storage)
	if err != nil {
		return err
	}
	results, err := automation.RunSweep(cmd.Context(), &automation.ToleranceSweep{
		Method:  m,
		Storage: kind,
		Size:    cfg.Size,
		Start:   cfg.Start,
		EpsMin:  epsMin,
		EpsMax:  epsMax,
		Steps:   sweepSteps,
		MaxIter: cfg.Solver.MaxIter,
	}, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s on n=%d, x[%d]\n\n", m, cfg.Size, cfg.Start)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EPS\tSWEEPS\tCONVERGED\t|ERR|")
	for _, r := range results {
		fmt.Fprintf(w, "%.1e\t%d\t%v\t%.3e\n", r.Eps, r.Sweeps, r.Converged, r.AbsErr)
	}
	return w.Flush()
}
