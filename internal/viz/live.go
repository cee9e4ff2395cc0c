package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/homewalk/internal/linalg"
	"github.com/san-kum/homewalk/internal/metrics"
)

const (
	sparkWidth   = 40
	defaultTick  = time.Second / 30
	vectorWidth  = 60
	vectorHeight = 8
)

var (
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// LiveOptions configure a Live view. Watch is the component shown next to
// the sweep counter; negative hides it.
type LiveOptions struct {
	Method   linalg.Method
	Eps      float64
	MaxIter  int
	Watch    int
	Title    string
	Interval time.Duration
}

// Live steps a relaxation one sweep per tick.
type Live struct {
	a         linalg.Matrix
	b         []float64
	x0, x     []float64
	opts      LiveOptions
	iter      int
	delta     float64
	converged bool
	running   bool
	trace     *metrics.Trace
	err       error
}

// NewLive prepares a live relaxation of a·x = b from x0. Shape errors are
// reported here rather than on the first tick.
func NewLive(a linalg.Matrix, b, x0 []float64, opts LiveOptions) (Live, error) {
	if _, err := linalg.Relax(a, opts.Method, b, x0, linalg.Settings{}); err != nil {
		return Live{}, err
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultTick
	}
	m := Live{
		a:     a,
		b:     b,
		x0:    append([]float64(nil), x0...),
		opts:  opts,
		trace: metrics.NewTrace(opts.Watch),
	}
	m.reset()
	return m, nil
}

func (m Live) Init() tea.Cmd { return m.tick() }

func (m Live) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles keys and advances one sweep per tick while running.
func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running && !m.done()
		case "n":
			if !m.running {
				m.step()
			}
		case "m":
			if m.opts.Method == linalg.Jacobi {
				m.opts.Method = linalg.GaussSeidel
			} else {
				m.opts.Method = linalg.Jacobi
			}
			m.reset()
		case "r":
			m.reset()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Live) step() {
	if m.done() {
		m.running = false
		return
	}
	// One sweep per call; the trace sees it through the observer.
	obs := linalg.ObserverFunc(func(_ int, x []float64, delta float64) {
		m.trace.OnSweep(m.iter+1, x, delta)
	})
	rep, err := linalg.Relax(m.a, m.opts.Method, m.b, m.x, linalg.Settings{Eps: m.opts.Eps, MaxIter: 1, Observer: obs})
	if err != nil {
		m.err, m.running = err, false
		return
	}
	m.x, m.delta = rep.X, rep.Delta
	m.iter++
	m.converged = rep.Converged
	if m.done() {
		m.running = false
	}
}

func (m *Live) reset() {
	m.x = append([]float64(nil), m.x0...)
	m.iter, m.delta, m.converged, m.err = 0, math.Inf(1), false, nil
	m.trace.Reset()
	m.running = true
}

func (m Live) done() bool {
	return m.converged || m.err != nil || (m.opts.MaxIter > 0 && m.iter >= m.opts.MaxIter)
}

func (m Live) Iterations() int       { return m.iter }
func (m Live) Converged() bool       { return m.converged }
func (m Live) Running() bool         { return m.running }
func (m Live) Method() linalg.Method { return m.opts.Method }
func (m Live) Delta() float64        { return m.delta }

// X returns a copy of the current iterate.
func (m Live) X() []float64 { return append([]float64(nil), m.x...) }

// View renders the iterate chart beside the sweep statistics.
func (m Live) View() string {
	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "relaxation"
	}
	s.WriteString(HeaderStyle.Render(strings.ToUpper(title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(MetricLabel.Render("Method") + MetricValue.Render(m.opts.Method.String()) + "\n")
	s.WriteString(MetricLabel.Render("Sweep") + MetricValue.Render(fmt.Sprintf("%d", m.iter)) + "\n")
	s.WriteString(MetricLabel.Render("Delta") + MetricValue.Render(fmt.Sprintf("%.3e", m.delta)) + "\n")
	s.WriteString(MetricLabel.Render("Eps") + MetricValue.Render(fmt.Sprintf("%.1e", m.opts.Eps)) + "\n")
	if m.opts.Watch >= 0 && m.opts.Watch < len(m.x) {
		s.WriteString(MetricLabel.Render(fmt.Sprintf("x[%d]", m.opts.Watch)) +
			MetricValue.Render(fmt.Sprintf("%.6f", m.x[m.opts.Watch])) + "\n")
	}
	s.WriteString("\n" + ProgressBar(m.progress(), sparkWidth) + "\n")
	s.WriteString(Sparkline(LogDeltas(m.trace.Deltas()), sparkWidth) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + Separator(sparkWidth) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause N:Step M:Method R:Reset Q:Quit"))

	chart := PlotVector(m.x, PlotOptions{Width: vectorWidth, Height: vectorHeight, Caption: "x"})
	return lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(chart), statsStyle.Render(s.String()))
}

func (m Live) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.converged:
		return StatusRunning.Render("CONVERGED")
	case m.done():
		return StatusPaused.Render("STOPPED (max sweeps)")
	case m.running:
		return StatusRunning.Render("RUNNING")
	}
	return StatusPaused.Render("PAUSED")
}

// progress is how far log10(delta) has come toward log10(eps), in [0, 1].
func (m Live) progress() float64 {
	if m.converged {
		return 1
	}
	if m.opts.Eps <= 0 || m.opts.Eps >= 1 || m.iter == 0 || m.delta <= 0 {
		return 0
	}
	p := math.Log10(m.delta) / math.Log10(m.opts.Eps)
	return math.Max(0, math.Min(1, p))
}
