package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ansel1/tangcord/output/format"
	"github.com/ansel1/tangcord/report"
	"github.com/ansel1/tangcord/results"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ResultsEventMsg wraps results events for bubbletea
type ResultsEventMsg results.Event

// EOFMsg signals that the collector has finished.
type EOFMsg struct{}

// maxRunningLines caps the running-test list under each package.
const maxRunningLines = 5

// runningTest is a test that has started but not finished.
type runningTest struct {
	pkg  string
	path string
}

// Model is the live progress view shown while a run streams in.
//
// It reads everything from the results.Collector. Collector events only tell
// the model when to resync.
type Model struct {
	collector *results.Collector

	NonTestOutput []string
	Packages      []results.PackageInfo
	Stats         report.Stats
	packageStats  map[string]report.Stats
	running       []runningTest

	// Terminal state
	TerminalWidth  int
	TerminalHeight int

	// Styles
	passStyle    lipgloss.Style
	failStyle    lipgloss.Style
	skipStyle    lipgloss.Style
	neutralStyle lipgloss.Style

	// State tracking
	Finished         bool
	Interrupted      bool // quit by the user before the input ended
	StartTime        time.Time
	TotalElapsedTime float64
	spinner          spinner.Model
}

// NewModel creates a new TUI model
func NewModel(collector *results.Collector) *Model {
	s := spinner.New()
	s.Spinner = spinner.Jump

	return &Model{
		collector:      collector,
		packageStats:   make(map[string]report.Stats),
		TerminalWidth:  80, // updated by Bubbletea
		TerminalHeight: 24,
		passStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		failStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		skipStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		neutralStyle:   lipgloss.NewStyle(),
		spinner:        s,
		StartTime:      time.Now(),
	}
}

// Init initializes the model and returns the initial command
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultsEventMsg:
		m.handleResultsEvent(results.Event(msg))

	case tea.WindowSizeMsg:
		m.TerminalWidth = msg.Width
		m.TerminalHeight = msg.Height

	case EOFMsg:
		m.finish()
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.Interrupted = !m.Finished
			m.finish()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) finish() {
	m.Finished = true
	m.TotalElapsedTime = time.Since(m.StartTime).Seconds()
	m.sync()
}

// handleResultsEvent processes a results event and updates the model state.
func (m *Model) handleResultsEvent(evt results.Event) {
	switch evt.Type {
	case results.EventNonTestOutput:
		m.NonTestOutput = append(m.NonTestOutput, evt.Output)

	case results.EventRawOutput:
		// printed above the view by the program

	case results.EventRunFinished:
		m.Finished = true
		m.TotalElapsedTime = time.Since(m.StartTime).Seconds()
		m.sync()

	default:
		m.sync()
	}
}

// sync rebuilds the view state from a collector snapshot.
func (m *Model) sync() {
	if m.collector == nil {
		return
	}

	files := m.collector.Files()
	m.Packages = m.collector.Packages()
	m.Stats = report.CalculateStats(files)
	m.running = m.running[:0]

	for _, file := range files {
		m.packageStats[file.Name] = report.CalculateStats([]*results.File{file})
		prefix := file.Name + results.PathSeparator
		results.WalkTests([]*results.File{file}, func(test *results.Test, path string) {
			if test.Result == nil && test.Mode == results.ModeNormal {
				m.running = append(m.running, runningTest{pkg: file.Name, path: strings.TrimPrefix(path, prefix)})
			}
		})
	}
}

// View renders the TUI
func (m *Model) View() string {
	return strings.TrimRight(format.ExpandTabs(m.render(), 8), "\n")
}

// String renders the TUI
func (m *Model) String() string {
	return m.View()
}

// HasFailures returns true if any tests failed
func (m *Model) HasFailures() bool {
	return m.Stats.Failed > 0
}

func (m *Model) render() string {
	var b strings.Builder

	for _, line := range m.NonTestOutput {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.NonTestOutput) > 0 {
		b.WriteString("\n")
	}

	for _, pkg := range m.Packages {
		m.renderPackage(&b, pkg)
	}

	if len(m.Packages) > 0 {
		b.WriteString(strings.Repeat("-", m.TerminalWidth))
		b.WriteString("\n")
	}

	m.renderSummaryLine(&b)
	return b.String()
}

func (m *Model) renderPackage(b *strings.Builder, pkg results.PackageInfo) {
	stats := m.packageStats[pkg.Name]

	var prefix string
	switch pkg.Status {
	case "pass":
		prefix = m.passStyle.Render(format.SymbolPass) + " "
	case "fail":
		prefix = m.failStyle.Render(format.SymbolFail) + " "
	case "skip":
		prefix = m.skipStyle.Render(format.SymbolSkip) + " "
	default:
		prefix = m.getSpinnerPrefix(stats.Failed > 0)
	}

	counts := fmt.Sprintf("%s  %s  %s",
		m.countStyle(m.passStyle, stats.Passed).Render(fmt.Sprintf("%s %d", format.SymbolPass, stats.Passed)),
		m.countStyle(m.failStyle, stats.Failed).Render(fmt.Sprintf("%s %d", format.SymbolFail, stats.Failed)),
		m.countStyle(m.skipStyle, stats.Skipped).Render(fmt.Sprintf("%s %d", format.SymbolSkip, stats.Skipped)),
	)
	right := counts
	if pkg.Status != "" {
		right += "  " + formatElapsedTime(pkg.Elapsed.Seconds())
	}
	m.renderAlignedLine(b, pkg.Name, right, prefix)

	if pkg.Status != "" {
		return
	}
	shown := 0
	for _, rt := range m.running {
		if rt.pkg != pkg.Name {
			continue
		}
		if shown == maxRunningLines {
			b.WriteString(truncateLine("      ...", m.TerminalWidth))
			b.WriteString("\n")
			break
		}
		b.WriteString(truncateLine("    === RUN   "+rt.path, m.TerminalWidth))
		b.WriteString("\n")
		shown++
	}
}

func (m *Model) countStyle(style lipgloss.Style, n int) lipgloss.Style {
	if n > 0 {
		return style
	}
	return m.neutralStyle
}

// getSpinnerPrefix returns the spinner string with appropriate color
func (m *Model) getSpinnerPrefix(failed bool) string {
	spinnerView := m.spinner.View()
	if failed {
		return m.failStyle.Render(spinnerView) + " "
	}
	return m.passStyle.Render(spinnerView) + " "
}

// renderAlignedLine renders a line with left-aligned and right-aligned content
func (m *Model) renderAlignedLine(b *strings.Builder, left, right, prefix string) {
	fullLeft := prefix + left

	if right == "" {
		b.WriteString(fullLeft)
		b.WriteString("\n")
		return
	}

	rightWidth := lipgloss.Width(right)
	leftWidth := lipgloss.Width(fullLeft)

	availableWidth := m.TerminalWidth - rightWidth - 2
	if availableWidth < 0 {
		availableWidth = 0
	}

	if leftWidth >= availableWidth {
		b.WriteString(ensureReset(truncateLine(fullLeft, availableWidth)))
	} else {
		b.WriteString(ensureReset(fullLeft))
		b.WriteString(strings.Repeat(" ", availableWidth-leftWidth))
	}
	b.WriteString("  ")
	b.WriteString(right)
	b.WriteString("\n")
}

// renderSummaryLine renders the final summary line
func (m *Model) renderSummaryLine(b *strings.Builder) {
	elapsed := m.TotalElapsedTime
	if !m.Finished {
		elapsed = time.Since(m.StartTime).Seconds()
	}

	status := "RUNNING"
	if m.Finished {
		status = "PASSED"
		if m.Stats.Failed > 0 {
			status = "FAILED"
		}
	}
	left := fmt.Sprintf("%s: %d passed, %d failed, %d skipped, %d running, %d total",
		status, m.Stats.Passed, m.Stats.Failed, m.Stats.Skipped, m.Stats.Unclassified(), m.Stats.Total)

	prefix := "  "
	if !m.Finished {
		prefix = m.getSpinnerPrefix(m.Stats.Failed > 0)
	}

	m.renderAlignedLine(b, left, formatElapsedTime(elapsed), prefix)
}

// DisplaySummary writes the end-of-run summary to w.
// It is called after the TUI exits, whether the run completed or the user
// interrupted it.
func (m *Model) DisplaySummary(w io.Writer) {
	if m.collector == nil {
		return
	}

	summary := format.ComputeSummary(m.collector.Files(), m.collector.Packages(), m.collector.Duration())
	summary.NonTestOutput = m.collector.NonTestOutput()

	formatter := format.NewSummaryFormatter(m.TerminalWidth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatter.Format(summary))
}

// formatElapsedTime formats elapsed time as X.Xs below a minute and X.Xm above.
func formatElapsedTime(seconds float64) string {
	if seconds < 0.05 {
		return "0.0s"
	}
	if seconds >= 60 {
		return fmt.Sprintf("%.1fm", seconds/60)
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// truncateLine truncates a line to fit within width.
func truncateLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(line) <= width {
		return line
	}
	runes := []rune(line)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

// ensureReset appends a terminal reset so truncated styled text cannot bleed
// color into the rest of the line.
func ensureReset(s string) string {
	if s == "" || strings.HasSuffix(s, "\033[0m") {
		return s
	}
	return s + "\033[0m"
}
