// Command tangcord reads `go test -json` output (or a JSON result tree),
// shows progress, and posts a summary of the run to a Discord webhook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ansel1/tangcord/config"
	"github.com/ansel1/tangcord/engine"
	"github.com/ansel1/tangcord/output"
	"github.com/ansel1/tangcord/output/format"
	"github.com/ansel1/tangcord/report"
	"github.com/ansel1/tangcord/reporter"
	"github.com/ansel1/tangcord/results"
	"github.com/ansel1/tangcord/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// exitError carries a non-zero exit code without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type cliOptions struct {
	infile     string
	treeFile   string
	configPath string
	envFile    string
	outfile    string
	jsonfile   string
	notty      bool
	dryRun     bool
	verbose    bool

	webhook    string
	title      string
	mention    string
	username   string
	stackTrace bool
	showPassed bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "tangcord",
		Short: "Post go test results to a Discord webhook",
		Long: `tangcord reads the output of "go test -json" from stdin (or a file),
shows live progress, and posts a summary of the run to a Discord webhook
when the input ends.

The webhook URL comes from --webhook, the config file, or the
DISCORD_WEBHOOK_URL environment variable (a .env file is loaded if present).
Without a webhook the summary is only printed.

The exit code is 1 when any test failed or the input could not be read.`,
		Example: `  go test -json ./... | tangcord
  tangcord -f results.json --webhook https://discord.com/api/webhooks/...
  tangcord --tree tree.json --dry-run`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVarP(&opts.infile, "file", "f", "", "Read go test -json output from file instead of stdin")
	flags.StringVar(&opts.treeFile, "tree", "", "Read a JSON result tree instead of go test -json output")
	flags.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to .env file with DISCORD_WEBHOOK_URL")
	flags.StringVar(&opts.outfile, "outfile", "", "Save all input to the specified file")
	flags.StringVar(&opts.jsonfile, "jsonfile", "", "Save JSON events to the specified file")
	flags.BoolVar(&opts.notty, "notty", false, "Don't use TUI, output to stdout")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the messages instead of sending them")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug output")

	flags.StringVar(&opts.webhook, "webhook", "", "Discord webhook URL")
	flags.StringVar(&opts.title, "title", report.DefaultTitle, "Summary message title")
	flags.StringVar(&opts.mention, "mention", "", "Text to include in the summary when tests fail, e.g. @here")
	flags.StringVar(&opts.username, "username", "", "Override the webhook's display name")
	flags.BoolVar(&opts.stackTrace, "stack-trace", false, "Include stack traces in failure details")
	flags.BoolVar(&opts.showPassed, "show-passed", true, "Include the list of passed tests")

	cmd.MarkFlagsMutuallyExclusive("file", "tree")

	return cmd
}

// resolveOptions layers flags over the config file over defaults.
func resolveOptions(cmd *cobra.Command, opts *cliOptions) (config.Options, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Options{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("webhook") {
		cfg.WebhookURL = opts.webhook
	}
	if flags.Changed("title") {
		cfg.Title = opts.title
	}
	if flags.Changed("mention") {
		cfg.MentionOnFailure = opts.mention
	}
	if flags.Changed("username") {
		cfg.Username = opts.username
	}
	if flags.Changed("stack-trace") {
		cfg.IncludeStackTrace = opts.stackTrace
	}
	if flags.Changed("show-passed") {
		show := opts.showPassed
		cfg.ShowPassedTests = &show
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *cliOptions) error {
	stdout := cmd.OutOrStdout()
	logger := output.NewLogger(stdout, cmd.ErrOrStderr(), output.WithVerbose(opts.verbose))

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return err
	}
	cfg, err := resolveOptions(cmd, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep := reporter.New(cfg)

	var (
		files   []*results.File
		runErrs []error
	)
	if opts.treeFile != "" {
		files, err = readTree(opts.treeFile)
		if err != nil {
			return err
		}
		rep.OnInit(reporter.NewHost(logger, reporter.StaticState(files)))
		summary := format.ComputeSummary(files, nil, 0)
		fmt.Fprintln(stdout, format.NewSummaryFormatter(80).Format(summary))
	} else {
		files, runErrs, err = stream(ctx, cmd, opts, rep, logger)
		if err != nil {
			return err
		}
	}

	// Input is done; a later interrupt should cancel delivery instead.
	stop()

	for _, runErr := range runErrs {
		logger.Error("Error reading input:", runErr)
	}

	if opts.dryRun {
		fmt.Fprintln(stdout, format.NewSummaryFormatter(80).FormatEmbeds(rep.Embeds(files)))
	} else {
		// Report interrupted runs too. Another interrupt cancels the send.
		sendCtx, stopSend := signal.NotifyContext(cmd.Context(), os.Interrupt)
		rep.OnFinished(sendCtx, files, runErrs)
		stopSend()
	}

	if report.CalculateStats(files).Failed > 0 || len(runErrs) > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func readTree(path string) ([]*results.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result tree: %w", err)
	}
	defer f.Close()

	return results.DecodeFiles(f)
}

// stream runs go test -json input through the engine and collector while
// showing progress, and returns the final tree.
func stream(ctx context.Context, cmd *cobra.Command, opts *cliOptions, rep *reporter.Reporter, logger *output.Logger) ([]*results.File, []error, error) {
	var input io.Reader = cmd.InOrStdin()
	if opts.infile != "" {
		f, err := os.Open(opts.infile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		input = f
	}

	var engineOpts []engine.Option
	if opts.outfile != "" {
		f, err := os.Create(opts.outfile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithRawOutput(f))
	}
	if opts.jsonfile != "" {
		f, err := os.Create(opts.jsonfile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create JSON file: %w", err)
		}
		defer f.Close()
		engineOpts = append(engineOpts, engine.WithJSONOutput(f))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := results.NewCollector()
	rep.OnInit(reporter.NewHost(logger, collector))

	sub := collector.Subscribe()
	engineEvents := engine.NewEngine(engineOpts...).Stream(ctx, input)
	errsCh := make(chan []error, 1)
	go func() {
		errsCh <- collector.ProcessEvents(engineEvents)
	}()

	stdout := cmd.OutOrStdout()
	if opts.notty || opts.infile != "" || !isTerminal(stdout) {
		simple := output.NewSimpleOutput(stdout, collector)
		if err := simple.ProcessEvents(sub); err != nil {
			return nil, nil, fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		m := tui.NewModel(collector)
		p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(stdout))

		go func() {
			for evt := range sub {
				// Raw lines are printed above the view.
				if evt.Type == results.EventRawOutput {
					p.Println(string(evt.RawLine))
					continue
				}
				p.Send(tui.ResultsEventMsg(evt))
			}
			p.Send(tui.EOFMsg{})
		}()

		finalModel, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return nil, nil, fmt.Errorf("failed to run TUI: %w", err)
		}
		model, ok := finalModel.(*tui.Model)
		if ok && model.Interrupted {
			// The engine may be blocked reading input; report what we have.
			cancel()
			collector.Finish()
			model.DisplaySummary(stdout)
			return collector.Files(), nil, nil
		}
		if ok {
			model.DisplaySummary(stdout)
		}
	}

	runErrs := <-errsCh
	return collector.Files(), runErrs, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
