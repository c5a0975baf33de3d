package engine

import (
	"bufio"
	"context"
	"io"

	"github.com/ansel1/tangcord/parser"
)

// maxLineSize bounds a single input line. Test output with long lines
// (e.g. large diffs) exceeds bufio's 64KiB default.
const maxLineSize = 4 * 1024 * 1024

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine  EventType = "raw"      // Non-JSON line from input
	EventTest     EventType = "test"     // Parsed test event from go test -json
	EventError    EventType = "error"    // Error occurred during processing
	EventComplete EventType = "complete" // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type      EventType
	RawLine   []byte           // Populated for EventRawLine
	TestEvent parser.TestEvent // Populated for EventTest
	Error     error            // Populated for EventError
}

// Engine turns a go test -json stream into events.
// It keeps no test state; that is the results.Collector's job.
type Engine struct {
	rawWriter  io.Writer
	jsonWriter io.Writer
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput copies every input line to w.
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput copies only the lines that parsed as test events to w.
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, parses lines, and emits events via channel.
// EventComplete is always the last event unless ctx is cancelled first.
// The channel is closed when the goroutine exits.
func (e *Engine) Stream(ctx context.Context, input io.Reader) <-chan Event {
	events := make(chan Event, 100)

	go func() {
		defer close(events)

		send := func(evt Event) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Bytes()

			if e.rawWriter != nil {
				writeLine(e.rawWriter, line)
			}

			testEvent, err := parser.ParseEvent(line)
			if err != nil {
				// scanner reuses its buffer
				lineCopy := make([]byte, len(line))
				copy(lineCopy, line)
				if !send(Event{Type: EventRawLine, RawLine: lineCopy}) {
					return
				}
				continue
			}

			if e.jsonWriter != nil {
				writeLine(e.jsonWriter, line)
			}

			if !send(Event{Type: EventTest, TestEvent: testEvent}) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if !send(Event{Type: EventError, Error: err}) {
				return
			}
		}

		send(Event{Type: EventComplete})
	}()

	return events
}

func writeLine(w io.Writer, line []byte) {
	_, _ = w.Write(line)
	_, _ = w.Write([]byte("\n"))
}
