package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/tangcord/discord"
	"github.com/ansel1/tangcord/results"
)

const (
	DefaultTitle = "Test Results"

	FailedTitle     = "❌ Failed Tests"
	PassedTitle     = "✅ Passed Tests"
	AllTestsPassed  = "All tests passed!"
	PassedPrefix    = "✓ "
	MaxFailedFields = discord.MaxFields
	MaxPassedLines  = 20

	// timestampLayout matches JavaScript's Date.toISOString.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Options controls message content.
type Options struct {
	Title             string
	IncludeStackTrace bool
	MentionOnFailure  string
	ShowPassedTests   bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Title:           DefaultTitle,
		ShowPassedTests: true,
	}
}

// Builder assembles the embeds for one run.
type Builder struct {
	opts Options
	now  func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the clock used for the summary timestamp.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder. An empty title falls back to DefaultTitle.
func NewBuilder(opts Options, builderOpts ...BuilderOption) *Builder {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	b := &Builder{opts: opts, now: time.Now}
	for _, opt := range builderOpts {
		opt(b)
	}
	return b
}

// Build returns the summary embed followed by the failed-details and
// passed-details embeds when they apply. Every embed stays within the
// webhook size limits regardless of input size.
func (b *Builder) Build(files []*results.File, duration time.Duration) []discord.Embed {
	stats := CalculateStats(files)
	embeds := []discord.Embed{b.Summary(stats, duration)}

	if embed, ok := b.FailedDetails(FailedTests(files, b.opts.IncludeStackTrace)); ok {
		embeds = append(embeds, embed)
	}

	if b.opts.ShowPassedTests && stats.Passed > 0 {
		if embed, ok := b.PassedDetails(PassedTests(files)); ok {
			embeds = append(embeds, embed)
		}
	}

	return embeds
}

// Summary builds the always-present first embed.
func (b *Builder) Summary(stats Stats, duration time.Duration) discord.Embed {
	color := discord.ColorSuccess
	if stats.Failed > 0 {
		color = discord.ColorFailure
	}

	embed := discord.Embed{
		Title: b.opts.Title,
		Color: color,
		Fields: []discord.Field{
			{Name: "Passed", Value: strconv.Itoa(stats.Passed), Inline: true},
			{Name: "Failed", Value: strconv.Itoa(stats.Failed), Inline: true},
			{Name: "Skipped", Value: strconv.Itoa(stats.Skipped), Inline: true},
			{Name: "Duration", Value: FormatDuration(duration), Inline: true},
			{Name: "Total", Value: strconv.Itoa(stats.Total), Inline: true},
		},
		Timestamp: b.now().UTC().Format(timestampLayout),
	}

	if stats.Failed > 0 && b.opts.MentionOnFailure != "" {
		embed.Description = Truncate(b.opts.MentionOnFailure, discord.MaxDescriptionLength)
	}
	return embed
}

// FailedDetails builds the failed-tests embed from the first 10 failures.
// It reports false when there are no failures.
func (b *Builder) FailedDetails(failed []FailedTest) (discord.Embed, bool) {
	if len(failed) == 0 {
		return discord.Embed{}, false
	}

	shown := failed
	if len(shown) > MaxFailedFields {
		shown = shown[:MaxFailedFields]
	}

	fields := make([]discord.Field, 0, len(shown))
	for _, ft := range shown {
		fields = append(fields, discord.Field{
			Name:  Truncate(ft.Name, discord.MaxFieldNameLength),
			Value: Truncate(ft.Error, discord.MaxFieldValueLength),
		})
	}

	embed := discord.Embed{
		Title:  FailedTitle,
		Color:  discord.ColorFailure,
		Fields: fields,
	}
	if len(failed) > MaxFailedFields {
		embed.Description = fmt.Sprintf("Showing %d of %d failed tests", MaxFailedFields, len(failed))
	}
	return embed, true
}

// PassedDetails builds the passed-tests embed from the first 20 paths.
// It reports false when there are no passed tests.
func (b *Builder) PassedDetails(passed []string) (discord.Embed, bool) {
	if len(passed) == 0 {
		return discord.Embed{}, false
	}

	shown := passed
	if len(shown) > MaxPassedLines {
		shown = shown[:MaxPassedLines]
	}

	lines := make([]string, 0, len(shown))
	for _, path := range shown {
		lines = append(lines, PassedPrefix+path)
	}

	description := Truncate(strings.Join(lines, "\n"), discord.MaxDescriptionLength)
	if description == "" {
		description = AllTestsPassed
	}

	embed := discord.Embed{
		Title:       PassedTitle,
		Color:       discord.ColorSuccess,
		Description: description,
	}
	if len(passed) > MaxPassedLines {
		embed.Footer = &discord.Footer{
			Text: fmt.Sprintf("Showing %d of %d passed tests", MaxPassedLines, len(passed)),
		}
	}
	return embed, true
}

// FormatDuration renders a run duration as seconds with two decimals,
// e.g. 2500ms -> "2.50s".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", float64(d.Milliseconds())/1000)
}
