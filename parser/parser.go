package parser

import (
	"encoding/json"
	"errors"
	"time"
)

// Actions emitted by `go test -json` (see `go doc test2json`).
const (
	ActionRun         = "run"
	ActionCont        = "cont"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// ErrNoAction is returned for JSON lines that are not test2json events.
var ErrNoAction = errors.New("not a test event: missing Action")

// TestEvent represents a single event from `go test -json` output
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	Test        string    `json:"Test,omitempty"`
	Output      string    `json:"Output,omitempty"`
	Elapsed     float64   `json:"Elapsed,omitempty"`
	Source      string    `json:"Source,omitempty"`
	ImportPath  string    `json:"ImportPath,omitempty"`
	FailedBuild string    `json:"FailedBuild,omitempty"`
}

// IsTerminal reports whether the event ends a test or package.
func (e TestEvent) IsTerminal() bool {
	switch e.Action {
	case ActionPass, ActionFail, ActionSkip:
		return true
	}
	return false
}

// ElapsedDuration converts the Elapsed seconds field to a time.Duration.
func (e TestEvent) ElapsedDuration() time.Duration {
	return time.Duration(e.Elapsed * float64(time.Second))
}

// ParseEvent parses a single line of JSON from `go test -json` output.
// Valid JSON without an Action field is rejected so that arbitrary JSON
// printed by tests is treated as raw output.
func ParseEvent(line []byte) (TestEvent, error) {
	var event TestEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return event, err
	}
	if event.Action == "" {
		return event, ErrNoAction
	}
	return event, nil
}
