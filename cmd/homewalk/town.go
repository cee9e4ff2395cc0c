package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/logging"
	"github.com/san-kum/homewalk/internal/town"
	"github.com/san-kum/homewalk/internal/viz"
)

var (
	intersections int
	alleys        int
	townFormat    string
	showMatrix    bool
)

func newTownCmd() *cobra.Command {
	townCmd := &cobra.Command{
		Use:   "town",
		Short: "generate, inspect and solve towns",
	}

	genCmd := &cobra.Command{
		Use:   "gen [file]",
		Short: "generate a random valid town",
		Args:  cobra.MaximumNArgs(1),
		RunE:  genTown,
	}
	genCmd.Flags().IntVar(&intersections, "intersections", 0, "number of intersections")
	genCmd.Flags().IntVar(&alleys, "alleys", 0, "number of alleys")
	genCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	genCmd.Flags().StringVar(&townFormat, "format", "", "yaml or text (default from the file extension)")

	solveCmd := &cobra.Command{
		Use:   "solve <file>",
		Short: "compare every method on a town against monte carlo",
		Args:  cobra.ExactArgs(1),
		RunE:  solveTown,
	}
	addSolverFlags(solveCmd)
	addSelectFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	showCmd := &cobra.Command{
		Use:   "show <file>",
		Short: "print a town in text form",
		Args:  cobra.ExactArgs(1),
		RunE:  showTown,
	}
	showCmd.Flags().BoolVar(&showMatrix, "matrix", false, "also print the linear system")

	townCmd.AddCommand(genCmd, solveCmd, showCmd)
	return townCmd
}

// loadTown reads YAML for .yaml/.yml files and the text format otherwise.
func loadTown(path string) (*town.Town, error) {
	var (
		t   *town.Town
		err error
	)
	if isYAML(path) {
		t, err = town.Load(path)
	} else {
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, err
		}
		defer f.Close()
		t, err = town.Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func genTown(cmd *cobra.Command, args []string) error {
	n, m := cfg.Town.Intersections, cfg.Town.Alleys
	if cmd.Flags().Changed("intersections") {
		n = intersections
	}
	if cmd.Flags().Changed("alleys") {
		m = alleys
	}
	t, err := town.Generate(rand.New(rand.NewSource(cfg.Seed)), n, m)
	if err != nil {
		return err
	}
	log.V(logging.DEBUG).Info("generated town", "intersections", n, "alleys", m, "seed", cfg.Seed)

	format := townFormat
	if format == "" {
		format = "text"
		if len(args) == 1 && isYAML(args[0]) {
			format = "yaml"
		}
	}
	if len(args) == 0 {
		return writeTown(cmd.OutOrStdout(), t, format)
	}

	var buf bytes.Buffer
	if err := writeTown(&buf, t, format); err != nil {
		return err
	}
	if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d intersections, %d alleys)\n", args[0], n, m)
	return nil
}

func writeTown(w io.Writer, t *town.Town, format string) error {
	switch format {
	case "text":
		return t.Format(w)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown town format: %s", format)
}

func solveTown(cmd *cobra.Command, args []string) error {
	t, err := loadTown(args[0])
	if err != nil {
		return err
	}
	cmp, err := runner.CompareTown(cmd.Context(), t, params())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), viz.ComparisonTable(cmp))
	if noSave {
		return nil
	}
	id, err := saveRun("town", cmp, cmp.Results)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved: %s\n", id)
	return nil
}

func showTown(cmd *cobra.Command, args []string) error {
	t, err := loadTown(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var exits, wells, cans int
	for _, in := range t.Intersections {
		switch {
		case in.Exit:
			exits++
		case in.Well:
			wells++
		}
		if in.Trashcan {
			cans++
		}
	}
	fmt.Fprintf(out, "%d intersections, %d alleys, %d exits, %d wells, %d trashcans, start %d\n\n",
		t.Size(), len(t.Alleys), exits, wells, cans, t.Start)
	if err := t.Format(out); err != nil {
		return err
	}
	if !showMatrix {
		return nil
	}

	a, b, err := t.Dense()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for i, row := range linalg.ToRows(a) {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%6.3f", v)
		}
		fmt.Fprintf(out, "%s | %6.3f\n", strings.Join(cells, " "), b[i])
	}
	return nil
}
