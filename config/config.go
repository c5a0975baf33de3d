// Package config resolves reporter options from flags, a YAML config file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ansel1/tangcord/report"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvWebhookURL is the environment variable consulted when no webhook URL is
// configured explicitly.
const EnvWebhookURL = "DISCORD_WEBHOOK_URL"

// Options are the user-facing reporter settings.
type Options struct {
	WebhookURL        string `yaml:"webhook_url,omitempty"`
	Title             string `yaml:"title,omitempty"`
	IncludeStackTrace bool   `yaml:"include_stack_trace,omitempty"`
	MentionOnFailure  string `yaml:"mention_on_failure,omitempty"`
	ShowPassedTests   *bool  `yaml:"show_passed_tests,omitempty"`
	Username          string `yaml:"username,omitempty"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	show := true
	return Options{
		Title:           report.DefaultTitle,
		ShowPassedTests: &show,
	}
}

// Load reads a YAML config file, validates it and applies it over Default.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse validates YAML config data and applies it over Default.
func Parse(data []byte) (Options, error) {
	if err := Validate(data); err != nil {
		return Options{}, err
	}
	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return opts, nil
}

// Resolve returns the first non-empty value. Callers pass candidates in
// precedence order: explicit option, environment value, default.
func Resolve(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadDotEnv loads variables from the given .env files (or ".env" when none
// are given) without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load environment from %s: %w", path, err)
		}
	}
	return nil
}

// ShowPassed reports whether the passed-tests embed is enabled. Unset means
// enabled.
func (o Options) ShowPassed() bool {
	return o.ShowPassedTests == nil || *o.ShowPassedTests
}

// ReportOptions converts to the options the message builder consumes.
func (o Options) ReportOptions() report.Options {
	return report.Options{
		Title:             Resolve(o.Title, report.DefaultTitle),
		IncludeStackTrace: o.IncludeStackTrace,
		MentionOnFailure:  o.MentionOnFailure,
		ShowPassedTests:   o.ShowPassed(),
	}
}
