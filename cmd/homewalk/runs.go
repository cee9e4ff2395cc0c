package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/export"
	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/metrics"
	"github.com/san-kum/homewalk/internal/storage"
	"github.com/san-kum/homewalk/internal/viz"
)

const (
	svgWidth  = 800
	svgHeight = 400
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), viz.RunsTable(runs))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	names, cols, err := st.LoadSolutions(args[0])
	if err != nil {
		return err
	}
	data := storage.ExportData{Run: meta, Solutions: make(map[string][]float64, len(names))}
	for i, name := range names {
		data.Solutions[name] = cols[i]
	}
	return storage.ExportJSON(cmd.OutOrStdout(), data, nil)
}

func plotRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return plotConvergence(cmd)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	names, cols, err := st.LoadSolutions(args[0])
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("no solutions to plot in %s", meta.ID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "kind: %s\n", meta.Kind)
	fmt.Fprintf(out, "size: %d\n\n", meta.Size)
	fmt.Fprintln(out, viz.PlotVectors(names, cols, viz.PlotOptions{Height: 15, Caption: "x by component"}))
	if svgPath == "" {
		return nil
	}
	series := make([]export.Series, len(cols))
	for i, col := range cols {
		series[i] = export.VectorSeries(names[i], col)
	}
	return export.WriteSVG(svgPath, series, svgWidth, svgHeight)
}

// plotConvergence relaxes the default path and charts the per-sweep delta
// and the watched component.
func plotConvergence(cmd *cobra.Command) error {
	m, err := relaxMethod(method)
	if err != nil {
		return err
	}
	a, b, err := experiment.PathSystem(linalg.KindSparse, cfg.Size)
	if err != nil {
		return err
	}
	trace := metrics.NewTrace(cfg.Start)
	rep, err := linalg.Relax(a, m, b, make([]float64, len(b)), linalg.Settings{
		Eps:      cfg.Solver.Eps,
		MaxIter:  cfg.Solver.MaxIter,
		Observer: trace,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s on n=%d: %d sweeps, converged %v, last delta %.3e\n\n",
		m, cfg.Size, rep.Iterations, rep.Converged, rep.Delta)
	fmt.Fprintln(out, viz.PlotDeltas(trace.Deltas(), viz.PlotOptions{Height: 12}))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.PlotVector(trace.Values(), viz.PlotOptions{
		Height:  10,
		Caption: fmt.Sprintf("x[%d] per sweep", cfg.Start),
	}))
	if svgPath == "" {
		return nil
	}
	return export.WriteSVG(svgPath, []export.Series{export.DeltaSeries("log10 delta "+m.String(), trace.Deltas())}, svgWidth, svgHeight)
}

func runLive(cmd *cobra.Command, args []string) error {
	m, err := relaxMethod(method)
	if err != nil {
		return err
	}
	kind, err := runner.Registry().GetStorage(cfg.Storage)
	if err != nil {
		return err
	}

	var (
		a     linalg.Matrix
		b     []float64
		title string
		focus = cfg.Start
	)
	if townFile != "" {
		t, err := loadTown(townFile)
		if err != nil {
			return err
		}
		if a, b, err = t.System(kind); err != nil {
			return err
		}
		title, focus = "town "+townFile, t.StartIndex()
	} else {
		if a, b, err = experiment.PathSystem(kind, cfg.Size); err != nil {
			return err
		}
		title = fmt.Sprintf("default path n=%d", cfg.Size)
	}
	if watch >= 0 {
		focus = watch
	}

	model, err := viz.NewLive(a, b, make([]float64, len(b)), viz.LiveOptions{
		Method:   m,
		Eps:      cfg.Solver.Eps,
		MaxIter:  cfg.Solver.MaxIter,
		Watch:    focus,
		Title:    title,
		Interval: time.Duration(intervalM) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}

func relaxMethod(name string) (linalg.Method, error) {
	switch name {
	case linalg.Jacobi.String():
		return linalg.Jacobi, nil
	case linalg.GaussSeidel.String():
		return linalg.GaussSeidel, nil
	}
	return 0, fmt.Errorf("not a relaxation method: %s", name)
}
