package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/homewalk/internal/config"
	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
	"github.com/san-kum/homewalk/internal/metrics"
	"github.com/san-kum/homewalk/internal/storage"
	"github.com/san-kum/homewalk/internal/viz"
)

var (
	dataDir     string
	configFile  string
	logLevel    string
	development bool
	metricsFile string
	preset      string

	// solver flags, overriding the config when set
	size     int
	start    int
	eps      float64
	maxIter  int
	trials   int
	workers  int
	seed     int64
	methods  []string
	storages []string

	method    string
	store     string
	outPath   string
	noSave    bool
	sizes     []int
	onTown    bool
	townFile  string
	watch     int
	intervalM int
	svgPath   string

	cfg      *config.Config
	log      logr.Logger
	registry *prometheus.Registry
	runner   *experiment.Runner
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "homewalk",
		Short:             "linear solvers checked against a random walk",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if metricsFile == "" {
				return nil
			}
			return prometheus.WriteToTextfile(metricsFile, registry)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".homewalk", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset instead of the defaults")
	pf.StringVar(&logLevel, "log-level", "info", "log level (error, info, debug, trace)")
	pf.BoolVar(&development, "dev", false, "human-readable development logs")
	pf.StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve the default path with one method",
		Args:  cobra.NoArgs,
		RunE:  solvePath,
	}
	addSolverFlags(solveCmd)
	solveCmd.Flags().StringVar(&method, "method", "", "method (jacobi, gauss-seidel, gauss, gauss-pp)")
	solveCmd.Flags().StringVar(&store, "storage", "", "matrix storage (dense, sparse)")
	solveCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the solution vector, one value per line")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare every method and storage against monte carlo",
		Args:  cobra.NoArgs,
		RunE:  compare,
	}
	addSolverFlags(compareCmd)
	addSelectFlags(compareCmd)
	compareCmd.Flags().StringVarP(&outPath, "out", "o", "", "write a text report")
	compareCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	dumpCmd := &cobra.Command{
		Use:   "dump [dir]",
		Short: "write full solution vectors per method and storage",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dump,
	}
	addSolverFlags(dumpCmd)
	addSelectFlags(dumpCmd)
	dumpCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "check partial pivoting against monte carlo over path sizes",
		Args:  cobra.NoArgs,
		RunE:  verify,
	}
	addSolverFlags(verifyCmd)
	verifyCmd.Flags().IntSliceVar(&sizes, "sizes", nil, "path sizes")
	verifyCmd.Flags().StringVarP(&outPath, "out", "o", "", "write n;gauss_pp;monte_carlo;error csv")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time every method over a range of sizes",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	addSolverFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", nil, "system sizes")
	benchCmd.Flags().StringVar(&store, "storage", "", "matrix storage (dense, sparse)")
	benchCmd.Flags().StringSliceVar(&methods, "methods", nil, "methods to time (default all)")
	benchCmd.Flags().BoolVar(&onTown, "town", false, "time generated towns instead of the default path")
	benchCmd.Flags().StringVarP(&outPath, "out", "o", "", "write n;<method ms>... csv")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored solutions, or relaxation convergence when no run is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	addSolverFlags(plotCmd)
	plotCmd.Flags().StringVar(&method, "method", "gauss-seidel", "relaxation method (jacobi, gauss-seidel)")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the chart as svg")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a relaxation converge sweep by sweep",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)
	liveCmd.Flags().StringVar(&method, "method", "gauss-seidel", "relaxation method (jacobi, gauss-seidel)")
	liveCmd.Flags().StringVar(&store, "storage", "", "matrix storage (dense, sparse)")
	liveCmd.Flags().StringVar(&townFile, "town", "", "relax this town instead of the default path")
	liveCmd.Flags().IntVar(&watch, "watch", -1, "component to display (default start)")
	liveCmd.Flags().IntVar(&intervalM, "interval", 30, "milliseconds between sweeps")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			names := config.ListPresets()
			slices.Sort(names)
			for _, p := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(solveCmd, compareCmd, dumpCmd, verifyCmd, benchCmd, newTownCmd(),
		listCmd, showCmd, plotCmd, liveCmd, presetsCmd)
	rootCmd.AddCommand(newScenarioCmds()...)
	return rootCmd
}

func addSolverFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&size, "size", "n", 0, "path size")
	f.IntVarP(&start, "start", "k", 0, "starting component")
	f.Float64Var(&eps, "eps", 0, "relaxation tolerance")
	f.IntVar(&maxIter, "max-iter", 0, "relaxation sweep cap")
	f.IntVar(&trials, "trials", 0, "monte carlo walks")
	f.IntVar(&workers, "workers", 0, "monte carlo workers (at least 1)")
	f.Int64Var(&seed, "seed", 0, "random seed")
}

func addSelectFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&methods, "methods", nil, "methods (default all)")
	cmd.Flags().StringSliceVar(&storages, "storages", nil, "storages (default all)")
}

// setup loads the config, applies flag overrides and builds the logger,
// metrics registry and runner shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	log, err = logging.New(logLevel, development)
	if err != nil {
		return err
	}
	logging.SetDefault(log)

	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	} else if cfg, err = config.Load(configFile); err != nil {
		return err
	}
	applyOverrides(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry = prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return err
	}
	runner = experiment.NewRunner(experiment.NewRegistry(),
		experiment.WithLogger(log.WithName("experiment")),
		experiment.WithCollector(collector))
	log.V(logging.DEBUG).Info("configured", "command", cmd.Name(), "size", cfg.Size, "start", cfg.Start,
		"storage", cfg.Storage, "method", cfg.Method, "seed", cfg.Seed)
	return nil
}

func applyOverrides(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("size") {
		cfg.Size = size
	}
	if f.Changed("start") {
		cfg.Start = start
	} else if cfg.Start >= cfg.Size {
		cfg.Start = cfg.Size / 2
	}
	if f.Changed("eps") {
		cfg.Solver.Eps = eps
	}
	if f.Changed("max-iter") {
		cfg.Solver.MaxIter = maxIter
	}
	if f.Changed("trials") {
		cfg.MonteCarlo.Trials = trials
	}
	if f.Changed("workers") {
		cfg.MonteCarlo.Workers = workers
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("method") {
		cfg.Method = method
	}
	if f.Changed("storage") {
		cfg.Storage = store
	}
	if f.Changed("sizes") {
		cfg.Verify.Sizes = sizes
	}
}

func params() experiment.Params {
	return experiment.Params{
		Size:     cfg.Size,
		Start:    cfg.Start,
		Eps:      cfg.Solver.Eps,
		MaxIter:  cfg.Solver.MaxIter,
		Trials:   cfg.MonteCarlo.Trials,
		Workers:  cfg.MonteCarlo.Workers,
		MaxSteps: cfg.MonteCarlo.MaxSteps,
		Seed:     cfg.Seed,
		Methods:  methods,
		Storages: storages,
	}
}

func newStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func saveRun(kind string, cmp *experiment.Comparison, results []experiment.Result) (string, error) {
	st, err := newStore()
	if err != nil {
		return "", err
	}
	p := params()
	return st.Save(storage.RunMetadata{
		Kind:       kind,
		Seed:       p.Seed,
		Size:       p.Size,
		Start:      p.Start,
		Eps:        p.Eps,
		MaxIter:    p.MaxIter,
		Trials:     p.Trials,
		Comparison: cmp,
	}, results)
}

func solvePath(cmd *cobra.Command, args []string) error {
	reg := runner.Registry()
	solve, err := reg.GetMethod(cfg.Method)
	if err != nil {
		return err
	}
	kind, err := reg.GetStorage(cfg.Storage)
	if err != nil {
		return err
	}
	a, b, err := experiment.PathSystem(kind, cfg.Size)
	if err != nil {
		return err
	}
	p := params()
	sol, err := solve(a, b, linalg.Settings{Eps: p.Eps, MaxIter: p.MaxIter})
	if err != nil {
		return fmt.Errorf("%s: %w", storage.Label(cfg.Method, cfg.Storage), err)
	}
	if outPath != "" {
		if err := storage.WriteVector(outPath, sol.X); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s on n=%d\n", storage.Label(cfg.Method, cfg.Storage), cfg.Size)
	if cfg.Start >= 0 && cfg.Start < len(sol.X) {
		fmt.Fprintf(out, "x[%d] = %.12g\n", cfg.Start, sol.X[cfg.Start])
	}
	if sol.Sweeps > 0 {
		fmt.Fprintf(out, "sweeps: %d converged: %v\n", sol.Sweeps, sol.Converged)
	}
	if rr, err := linalg.Residual(a, sol.X, b); err == nil {
		fmt.Fprintf(out, "residual: %.3e\n", rr)
	}
	return nil
}

func compare(cmd *cobra.Command, args []string) error {
	cmp, err := runner.Compare(cmd.Context(), params())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), viz.ComparisonTable(cmp))
	if outPath != "" {
		if err := storage.WriteComparison(outPath, cmp); err != nil {
			return err
		}
	}
	if noSave {
		return nil
	}
	id, err := saveRun("compare", cmp, cmp.Results)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", id)
	return nil
}

func dump(cmd *cobra.Command, args []string) error {
	results, err := runner.Dump(cmd.Context(), params())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		if err := os.MkdirAll(args[0], 0755); err != nil {
			return err
		}
		for _, r := range results {
			if r.Failed() {
				continue
			}
			path := filepath.Join(args[0], r.Method+"_"+r.Storage+".txt")
			if err := storage.WriteVector(path, r.X); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", path)
		}
	}
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(out, "%s: error (%s)\n", storage.Label(r.Method, r.Storage), r.Error)
			continue
		}
		fmt.Fprintf(out, "%s: %d components, residual %.3e in %v\n",
			storage.Label(r.Method, r.Storage), len(r.X), r.Residual, r.Elapsed)
	}
	if noSave {
		return nil
	}
	id, err := saveRun("dump", nil, results)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved: %s\n", id)
	return nil
}

func verify(cmd *cobra.Command, args []string) error {
	rows, err := runner.Verify(cmd.Context(), cfg.Verify.Sizes, params())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.VerifyTable(rows))
	if outPath != "" {
		return storage.WriteVerify(outPath, rows)
	}
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	system := experiment.PathSystem
	if onTown {
		system = experiment.TownSystem(cfg.Seed)
	}
	p := params()
	rows, err := runner.Bench(cmd.Context(), cfg.Verify.Sizes, cfg.Storage, p, system)
	if err != nil {
		return err
	}
	names := p.Methods
	if len(names) == 0 {
		names = runner.Registry().ListMethods()
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.TimingTable(names, rows))
	if outPath != "" {
		return storage.WriteTiming(outPath, names, rows)
	}
	return nil
}
