package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/homewalk/internal/experiment"
	"github.com/san-kum/homewalk/internal/storage"
)

var (
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerCell  = cellStyle.Bold(true).Foreground(lipgloss.Color("#00ffff"))
	failedCell  = cellStyle.Foreground(lipgloss.Color("#ff4444"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cellStyle
		})
}

// ComparisonTable renders one row per method/storage with its value, the
// distance to the exact value and its cost, followed by the Monte Carlo
// estimate.
func ComparisonTable(c *experiment.Comparison) string {
	t := newTable("METHOD", "VALUE", "|ERR|", "TIME", "SWEEPS", "CONVERGED")
	failed := make(map[int]bool)
	for i, r := range c.Results {
		if r.Failed() {
			failed[i] = true
			t.Row(storage.Label(r.Method, r.Storage), "error", r.Error, r.Elapsed.String(), "-", "-")
			continue
		}
		sweeps, conv := "-", "-"
		if r.Sweeps > 0 {
			sweeps = strconv.Itoa(r.Sweeps)
			conv = strconv.FormatBool(r.Converged)
		}
		t.Row(storage.Label(r.Method, r.Storage), num(r.Value), sci(math.Abs(r.Value-c.Exact)),
			r.Elapsed.String(), sweeps, conv)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerCell
		case failed[row]:
			return failedCell
		}
		return cellStyle
	})

	var sb strings.Builder
	sb.WriteString(Title.Render(fmt.Sprintf("n=%d start=%d", c.Size, c.Start)) + "\n")
	sb.WriteString(t.String() + "\n")
	sb.WriteString(MetricLabel.Render("exact") + MetricValue.Render(num(c.Exact)) + "\n")
	if c.MonteCarlo.Trials > 0 {
		mc := fmt.Sprintf("%s ± %s (%d trials, %s)", num(c.MonteCarlo.P), sci(c.MonteCarlo.StdErr),
			c.MonteCarlo.Trials, c.MonteCarloElapsed.Round(time.Microsecond))
		sb.WriteString(MetricLabel.Render("monte carlo") + MetricValue.Render(mc) + "\n")
	}
	return sb.String()
}

// VerifyTable renders exact against Monte Carlo per path size.
func VerifyTable(rows []experiment.VerifyRow) string {
	t := newTable("N", "START", "GAUSS-PP", "MONTE CARLO", "STDERR", "|ERR|")
	for _, r := range rows {
		t.Row(strconv.Itoa(r.N), strconv.Itoa(r.Start), num(r.Exact), num(r.MonteCarlo), sci(r.StdErr), sci(r.AbsErr))
	}
	return t.String()
}

// TimingTable renders milliseconds per method and size. Failed solves show
// as "-".
func TimingTable(methods []string, rows []experiment.TimingRow) string {
	headers := append([]string{"N"}, methods...)
	t := newTable(headers...)
	for _, r := range rows {
		cells := []string{strconv.Itoa(r.N)}
		for _, m := range methods {
			ms, ok := r.Millis[m]
			if !ok || math.IsNaN(ms) {
				cells = append(cells, "-")
				continue
			}
			cells = append(cells, strconv.FormatFloat(ms, 'f', 3, 64))
		}
		t.Row(cells...)
	}
	return t.String()
}

// RunsTable lists stored runs.
func RunsTable(runs []storage.RunMetadata) string {
	t := newTable("ID", "KIND", "TIME", "SIZE", "START", "SEED")
	for _, r := range runs {
		t.Row(r.ID, r.Kind, r.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Size), strconv.Itoa(r.Start), strconv.FormatInt(r.Seed, 10))
	}
	return t.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func sci(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'e', 2, 64)
}
