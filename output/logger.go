package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Logger writes console messages for the reporter. Log and Debug go to the
// standard stream, Warn and Error to the error stream. Arguments are joined
// with single spaces.
type Logger struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	colors  bool

	logStyle   lipgloss.Style
	warnStyle  lipgloss.Style
	errorStyle lipgloss.Style
	debugStyle lipgloss.Style
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithVerbose enables Debug output.
func WithVerbose(verbose bool) LoggerOption {
	return func(l *Logger) {
		l.verbose = verbose
	}
}

// WithColors forces styling on or off. By default it is on only when both
// streams are terminals.
func WithColors(colors bool) LoggerOption {
	return func(l *Logger) {
		l.colors = colors
	}
}

// NewLogger creates a Logger writing to the given streams.
func NewLogger(stdout, stderr io.Writer, opts ...LoggerOption) *Logger {
	l := &Logger{
		stdout:     stdout,
		stderr:     stderr,
		colors:     isTerminal(stdout) && isTerminal(stderr),
		logStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		warnStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")), // yellow
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")), // red
		debugStyle: lipgloss.NewStyle().Faint(true),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewConsoleLogger creates a Logger on os.Stdout and os.Stderr.
func NewConsoleLogger(opts ...LoggerOption) *Logger {
	return NewLogger(os.Stdout, os.Stderr, opts...)
}

func (l *Logger) Log(args ...any) {
	l.write(l.stdout, l.logStyle, args)
}

func (l *Logger) Warn(args ...any) {
	l.write(l.stderr, l.warnStyle, args)
}

func (l *Logger) Error(args ...any) {
	l.write(l.stderr, l.errorStyle, args)
}

// Debug is a no-op unless the logger is verbose.
func (l *Logger) Debug(args ...any) {
	if !l.verbose {
		return
	}
	l.write(l.stderr, l.debugStyle, args)
}

func (l *Logger) write(w io.Writer, style lipgloss.Style, args []any) {
	msg := strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	if l.colors {
		msg = style.Render(msg)
	}
	_, _ = fmt.Fprintln(w, msg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
