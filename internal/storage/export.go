package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/linalg"
)

// Separator is the field separator of the verify and timing CSV files.
const Separator = ';'

// WriteVector writes one component per line.
func WriteVector(path string, x []float64) error {
	return writeFile(path, func(w *bufio.Writer) error {
		for _, v := range x {
			if _, err := fmt.Fprintln(w, strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMatrix writes m one row per line with Separator between entries.
func WriteMatrix(path string, m linalg.Matrix) error {
	return writeFile(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		cw.Comma = Separator
		for _, row := range linalg.ToRows(m) {
			rec := make([]string, len(row))
			for j, v := range row {
				rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteComparison writes the plain-text comparison report.
func WriteComparison(path string, c *experiment.Comparison) error {
	return writeFile(path, func(w *bufio.Writer) error {
		return FormatComparison(w, c)
	})
}

// FormatComparison writes one "<label>: <value> in <elapsed>" line for the
// Monte Carlo estimate and each result.
func FormatComparison(w io.Writer, c *experiment.Comparison) error {
	if _, err := fmt.Fprintf(w, "Monte carlo: %v in %v\n", c.MonteCarlo.P, c.MonteCarloElapsed); err != nil {
		return err
	}
	for _, r := range c.Results {
		val := strconv.FormatFloat(r.Value, 'g', -1, 64)
		if r.Failed() {
			val = "error (" + r.Error + ")"
		}
		if _, err := fmt.Fprintf(w, "%s: %s in %v\n", Label(r.Method, r.Storage), val, r.Elapsed); err != nil {
			return err
		}
	}
	return nil
}

// Label names a method/storage pair for reports.
func Label(method, storage string) string {
	var name string
	switch method {
	case "jacobi":
		name = "Jacobi"
	case "gauss-seidel":
		name = "Gauss-Seidel"
	case "gauss":
		name = "Gauss (no pivot)"
	case "gauss-pp":
		name = "Gauss (partial pivot)"
	default:
		name = method
	}
	if storage == linalg.KindSparse.String() {
		return "Sparse " + name
	}
	return name
}

// WriteVerify writes n;exact;mc;err rows under a header.
func WriteVerify(path string, rows []experiment.VerifyRow) error {
	return writeCSV(path, []string{"n", "gauss_pp", "monte_carlo", "error"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{strconv.Itoa(r.N), ftoa(r.Exact), ftoa(r.MonteCarlo), ftoa(r.AbsErr)}
	})
}

// WriteTiming writes n;<method ms>... rows, one column per method.
func WriteTiming(path string, methods []string, rows []experiment.TimingRow) error {
	header := append([]string{"n"}, methods...)
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		rec := []string{strconv.Itoa(r.N)}
		for _, m := range methods {
			v, ok := r.Millis[m]
			if !ok {
				v = math.NaN()
			}
			rec = append(rec, ftoa(v))
		}
		return rec
	})
}

type ExportData struct {
	Run        *RunMetadata           `json:"run,omitempty"`
	Comparison *experiment.Comparison `json:"comparison,omitempty"`
	Verify     []experiment.VerifyRow `json:"verify,omitempty"`
	Solutions  map[string][]float64   `json:"solutions,omitempty"`
}

// ExportJSON writes data as indented JSON. Solution vectors are taken from
// results that carry one.
func ExportJSON(w io.Writer, data ExportData, results []experiment.Result) error {
	for _, r := range results {
		if len(r.X) == 0 {
			continue
		}
		if data.Solutions == nil {
			data.Solutions = make(map[string][]float64)
		}
		data.Solutions[r.Method+"/"+r.Storage] = r.X
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		cw.Comma = Separator
		if err := cw.Write(header); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := cw.Write(row(i)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func writeFile(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
