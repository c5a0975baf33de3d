package format

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ansel1/tangcord/report"
	"github.com/ansel1/tangcord/results"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// formatDuration formats a duration as HH:MM:SS.mmm.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, milliseconds)
}

// Symbol constants for test results
const (
	SymbolPass        = "✓"
	SymbolFail        = "✗"
	SymbolSkip        = "∅"
	SymbolInterrupted = "…"
)

// Indentation constants
const (
	IndentLevel1 = "  "   // 2 spaces
	IndentLevel2 = "    " // 4 spaces
)

const (
	maxFailureLines = 10
	tabWidth        = 8
)

// ExpandTabs replaces tab characters with spaces. Tabs in some terminals
// only advance the cursor, leaving characters from the previous frame visible.
func ExpandTabs(s string, tabWidth int) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteRune(r)
			col = 0
		case '\t':
			spaces := tabWidth - (col % tabWidth)
			b.WriteString(strings.Repeat(" ", spaces))
			col += spaces
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// Failure is one failed test with the first lines of its error.
type Failure struct {
	Name   string
	Output []string
}

// PackageSummary holds one package's progress and counts.
type PackageSummary struct {
	results.PackageInfo
	Stats    report.Stats
	Failures []Failure
	Skipped  []string
}

// Summary represents computed summary statistics from a test run.
type Summary struct {
	Packages      []PackageSummary
	Stats         report.Stats
	TotalTime     time.Duration
	NonTestOutput []string
}

// ComputeSummary groups the result tree by package. Packages without
// progress information (e.g. a decoded tree) get an empty status.
func ComputeSummary(files []*results.File, packages []results.PackageInfo, totalTime time.Duration) *Summary {
	info := make(map[string]results.PackageInfo, len(packages))
	for _, p := range packages {
		info[p.Name] = p
	}

	summary := &Summary{
		Stats:     report.CalculateStats(files),
		TotalTime: totalTime,
	}

	for _, file := range files {
		if file == nil {
			continue
		}
		pkgInfo, ok := info[file.Name]
		if !ok {
			pkgInfo = results.PackageInfo{Name: file.Name}
		}
		pkg := PackageSummary{
			PackageInfo: pkgInfo,
			Stats:       report.CalculateStats([]*results.File{file}),
		}

		prefix := file.Name + results.PathSeparator
		results.WalkTests([]*results.File{file}, func(test *results.Test, path string) {
			name := strings.TrimPrefix(path, prefix)
			switch {
			case test.State() == results.StateFail:
				pkg.Failures = append(pkg.Failures, Failure{Name: name, Output: failureLines(test)})
			case test.State() == results.StatePass:
			case test.Mode == results.ModeSkip || test.Mode == results.ModeTodo:
				pkg.Skipped = append(pkg.Skipped, name)
			}
		})
		summary.Packages = append(summary.Packages, pkg)
	}

	return summary
}

func failureLines(test *results.Test) []string {
	testErr, ok := test.FirstError()
	if !ok {
		return []string{report.UnknownError}
	}
	text := testErr.Message
	if testErr.Stack != "" {
		text += "\n" + testErr.Stack
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxFailureLines {
		lines = lines[:maxFailureLines]
	}
	return lines
}

// SummaryFormatter formats a Summary for display.
type SummaryFormatter struct {
	width        int
	useColors    bool
	passStyle    lipgloss.Style
	failStyle    lipgloss.Style
	skipStyle    lipgloss.Style
	neutralStyle lipgloss.Style
}

// FormatterOption configures a SummaryFormatter.
type FormatterOption func(*SummaryFormatter)

// WithColors overrides TTY detection.
func WithColors(useColors bool) FormatterOption {
	return func(sf *SummaryFormatter) {
		sf.useColors = useColors
	}
}

// NewSummaryFormatter creates a new summary formatter. Colors are enabled
// if stdout is a TTY. A non-positive width means 80 columns.
func NewSummaryFormatter(width int, opts ...FormatterOption) *SummaryFormatter {
	if width <= 0 {
		width = 80
	}

	sf := &SummaryFormatter{
		width:        width,
		useColors:    isatty.IsTerminal(os.Stdout.Fd()),
		passStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		failStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		skipStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		neutralStyle: lipgloss.NewStyle(),
	}
	for _, opt := range opts {
		opt(sf)
	}
	return sf
}

func (sf *SummaryFormatter) render(style lipgloss.Style, s string) string {
	if !sf.useColors {
		return s
	}
	return style.Render(s)
}

// Format renders a complete summary as a formatted string.
func (sf *SummaryFormatter) Format(summary *Summary) string {
	var b strings.Builder

	if len(summary.NonTestOutput) > 0 {
		b.WriteString(sf.formatNonTestOutput(summary.NonTestOutput))
		b.WriteString("\n")
	}

	if summary.Stats.Failed > 0 {
		b.WriteString(sf.formatFailures(summary.Packages))
		b.WriteString("\n")
	}

	if summary.Stats.Skipped > 0 {
		b.WriteString(sf.formatSkipped(summary.Packages))
		b.WriteString("\n")
	}

	if len(summary.Packages) > 0 {
		b.WriteString(sf.formatPackageSection(summary.Packages))
		b.WriteString("\n")
	}

	b.WriteString(sf.formatOverallResults(summary))
	b.WriteString("\n")

	return b.String()
}

func (sf *SummaryFormatter) formatNonTestOutput(lines []string) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("BUILD OUTPUT"))
	for _, line := range lines {
		b.WriteString(ExpandTabs(line, tabWidth) + "\n")
	}
	b.WriteString(sf.horizontalLine())
	return b.String()
}

func (sf *SummaryFormatter) formatFailures(packages []PackageSummary) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("FAILURES"))

	first := true
	for _, pkg := range packages {
		if len(pkg.Failures) == 0 {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false

		b.WriteString(pkg.Name + "\n")
		for _, failure := range pkg.Failures {
			b.WriteString(IndentLevel1 + sf.render(sf.failStyle, SymbolFail) + " " + failure.Name + "\n")
			for _, line := range failure.Output {
				b.WriteString(IndentLevel2 + ExpandTabs(line, tabWidth) + "\n")
			}
		}
	}

	b.WriteString(sf.horizontalLine())
	return b.String()
}

func (sf *SummaryFormatter) formatSkipped(packages []PackageSummary) string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("SKIPPED"))

	for _, pkg := range packages {
		if len(pkg.Skipped) == 0 {
			continue
		}
		b.WriteString(pkg.Name + "\n")
		for _, name := range pkg.Skipped {
			b.WriteString(IndentLevel1 + sf.render(sf.skipStyle, SymbolSkip) + " " + name + "\n")
		}
	}

	b.WriteString(sf.horizontalLine())
	return b.String()
}

// formatPackageSection renders one table row per package.
func (sf *SummaryFormatter) formatPackageSection(packages []PackageSummary) string {
	rows := make([][]string, 0, len(packages))
	for _, pkg := range packages {
		rows = append(rows, []string{
			packageSymbol(pkg),
			pkg.Name,
			fmt.Sprintf("%s %d", SymbolPass, pkg.Stats.Passed),
			fmt.Sprintf("%s %d", SymbolFail, pkg.Stats.Failed),
			fmt.Sprintf("%s %d", SymbolSkip, pkg.Stats.Skipped),
			formatDuration(pkg.Elapsed),
		})
	}

	return renderSectionHeader("PACKAGES") +
		renderTable([]string{"", "Package", "Passed", "Failed", "Skipped", "Elapsed"}, rows) +
		sf.horizontalLine()
}

// packageSymbol picks the status symbol. Packages that never reported a
// final status are shown as interrupted.
func packageSymbol(pkg PackageSummary) string {
	switch pkg.Status {
	case "pass":
		return SymbolPass
	case "fail":
		return SymbolFail
	case "skip":
		return SymbolSkip
	}
	if pkg.Stats.Failed > 0 {
		return SymbolFail
	}
	return SymbolInterrupted
}

// formatOverallResults formats the overall statistics section.
func (sf *SummaryFormatter) formatOverallResults(summary *Summary) string {
	stats := summary.Stats

	passPercent := 0.0
	failPercent := 0.0
	skipPercent := 0.0
	if stats.Total > 0 {
		passPercent = float64(stats.Passed) / float64(stats.Total) * 100
		failPercent = float64(stats.Failed) / float64(stats.Total) * 100
		skipPercent = float64(stats.Skipped) / float64(stats.Total) * 100
	}

	var b strings.Builder
	b.WriteString(renderSectionHeader("OVERALL RESULTS"))
	fmt.Fprintf(&b, "Total tests:    %d\n", stats.Total)
	fmt.Fprintf(&b, "Passed:         %d %s (%.1f%%)\n", stats.Passed, sf.render(sf.passStyle, SymbolPass), passPercent)
	fmt.Fprintf(&b, "Failed:         %d %s (%.1f%%)\n", stats.Failed, sf.render(sf.failStyle, SymbolFail), failPercent)
	fmt.Fprintf(&b, "Skipped:        %d %s (%.1f%%)\n", stats.Skipped, sf.render(sf.skipStyle, SymbolSkip), skipPercent)
	if n := stats.Unclassified(); n > 0 {
		fmt.Fprintf(&b, "Unfinished:     %d %s\n", n, SymbolInterrupted)
	}
	fmt.Fprintf(&b, "Total time:     %s\n", formatDuration(summary.TotalTime))
	fmt.Fprintf(&b, "Packages:       %d\n", len(summary.Packages))
	b.WriteString(sf.horizontalLine())
	return b.String()
}

// horizontalLine returns a horizontal separator line.
func (sf *SummaryFormatter) horizontalLine() string {
	return strings.Repeat("-", sf.width)
}

func renderSectionHeader(header string) string {
	return header + "\n" + strings.Repeat("-", len(header)) + "\n"
}

// renderTable renders rows with tablewriter, falling back to tab-separated
// lines if the table cannot be rendered.
func renderTable(header []string, rows [][]string) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.Header(header)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return plainTable(header, rows)
		}
	}
	if err := table.Render(); err != nil {
		return plainTable(header, rows)
	}
	return b.String()
}

func plainTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, "\t") + "\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t") + "\n")
	}
	return b.String()
}
