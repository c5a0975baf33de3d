// Package reporter drives a webhook notification through one test run:
// OnInit when the run starts, OnFinished once it completes.
package reporter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ansel1/tangcord/config"
	"github.com/ansel1/tangcord/discord"
	"github.com/ansel1/tangcord/report"
	"github.com/ansel1/tangcord/results"
)

// Console messages.
const (
	SentMessage           = "✅ Discord notification sent"
	FailedMessage         = "❌ Failed to send Discord notification:"
	MissingWebhookMessage = "⚠️ Discord webhook URL not configured, skipping notification"
)

// Logger is the console the host provides.
type Logger interface {
	Log(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type debugLogger interface {
	Debug(args ...any)
}

// State exposes the host's current result tree.
type State interface {
	Files() []*results.File
}

// Host is the test runner the reporter is attached to.
type Host interface {
	Logger() Logger
	State() State
}

type host struct {
	logger Logger
	state  State
}

func (h host) Logger() Logger { return h.logger }
func (h host) State() State   { return h.state }

// NewHost pairs a logger with a result source.
func NewHost(logger Logger, state State) Host {
	return host{logger: logger, state: state}
}

// StaticState is a State over a fixed tree, e.g. one decoded from a file.
type StaticState []*results.File

func (s StaticState) Files() []*results.File { return s }

// Reporter sends the run summary to a Discord webhook.
//
// A Reporter handles exactly one run: OnInit then OnFinished, each once.
// Before OnInit there is no host to log to, so OnFinished does nothing and
// Embeds only sees the files it is given. Notification problems, including
// a panicking sender, are logged and never returned.
type Reporter struct {
	opts      config.Options
	sender    discord.Sender
	now       func() time.Time
	lookupEnv func(string) (string, bool)

	host       Host
	webhookURL string
	start      time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithSender replaces the webhook client.
func WithSender(sender discord.Sender) Option {
	return func(r *Reporter) {
		r.sender = sender
	}
}

// WithClock replaces time.Now for the elapsed time and the summary timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithLookupEnv replaces os.LookupEnv for the webhook fallback.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Reporter) {
		r.lookupEnv = lookup
	}
}

// New creates a Reporter.
func New(opts config.Options, options ...Option) *Reporter {
	r := &Reporter{
		opts:      opts,
		now:       time.Now,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.sender == nil {
		r.sender = discord.NewClient(discord.WithUsername(opts.Username))
	}
	return r
}

// OnInit resolves the webhook URL and records the start of the run.
func (r *Reporter) OnInit(h Host) {
	r.host = h
	env, _ := r.lookupEnv(config.EnvWebhookURL)
	r.webhookURL = config.Resolve(r.opts.WebhookURL, env)
	r.start = r.now()
}

// WebhookURL returns the URL resolved by OnInit.
func (r *Reporter) WebhookURL() string {
	return r.webhookURL
}

// Embeds builds the messages for the run so far, timed from OnInit. A nil
// files slice means the host's current tree.
func (r *Reporter) Embeds(files []*results.File) []discord.Embed {
	if files == nil && r.host != nil {
		files = r.host.State().Files()
	}
	var elapsed time.Duration
	if !r.start.IsZero() {
		elapsed = r.now().Sub(r.start)
	}
	return report.NewBuilder(r.opts.ReportOptions(), report.WithClock(r.now)).Build(files, elapsed)
}

// OnFinished builds the embeds for the run and delivers them. A nil files
// slice means the host's current tree.
func (r *Reporter) OnFinished(ctx context.Context, files []*results.File, errs []error) {
	if r.host == nil {
		return
	}
	logger := r.host.Logger()
	if len(errs) > 0 {
		logger.Warn(fmt.Sprintf("⚠️ %d error(s) reported during the run", len(errs)))
	}

	embeds := r.Embeds(files)

	if r.webhookURL == "" {
		logger.Warn(MissingWebhookMessage)
		return
	}

	if dl, ok := logger.(debugLogger); ok {
		dl.Debug("sending", len(embeds), "embeds")
	}

	if err := r.send(ctx, embeds); err != nil {
		logger.Error(FailedMessage, err)
		return
	}
	logger.Log(SentMessage)
}

// send calls the sender, turning a panic into an error.
func (r *Reporter) send(ctx context.Context, embeds []discord.Embed) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.sender.Send(ctx, r.webhookURL, embeds)
}
