package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ansel1/tangcord/engine"
	"github.com/ansel1/tangcord/output/format"
	"github.com/ansel1/tangcord/parser"
	"github.com/ansel1/tangcord/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(action, test, out string) engine.Event {
	return engine.Event{
		Type: engine.EventTest,
		TestEvent: parser.TestEvent{
			Action:  action,
			Package: "example.com/pkg",
			Test:    test,
			Output:  out,
		},
	}
}

// runSimple feeds events through a collector into a SimpleOutput.
func runSimple(t *testing.T, evts ...engine.Event) (*SimpleOutput, string) {
	t.Helper()

	engineEvents := make(chan engine.Event, len(evts)+1)
	for _, evt := range evts {
		engineEvents <- evt
	}
	engineEvents <- engine.Event{Type: engine.EventComplete}
	close(engineEvents)

	collector := results.NewCollector()
	sub := collector.Subscribe()
	go collector.ProcessEvents(engineEvents)

	var buf bytes.Buffer
	simple := NewSimpleOutput(&buf, collector, format.WithColors(false))
	require.NoError(t, simple.ProcessEvents(sub))
	return simple, buf.String()
}

func TestSimpleOutput_PassingRun(t *testing.T) {
	simple, output := runSimple(t,
		testEvent(parser.ActionRun, "TestFoo", ""),
		testEvent(parser.ActionOutput, "TestFoo", "=== RUN   TestFoo\n"),
		testEvent(parser.ActionPass, "TestFoo", ""),
		testEvent(parser.ActionPass, "", ""),
	)

	assert.False(t, simple.HasFailures())
	assert.Contains(t, output, "OVERALL RESULTS")
	assert.Contains(t, output, "Total tests:    1")
	assert.Contains(t, output, "example.com/pkg")
	assert.NotContains(t, output, "FAILURES")
}

func TestSimpleOutput_FailedRun(t *testing.T) {
	simple, output := runSimple(t,
		testEvent(parser.ActionRun, "TestFail", ""),
		testEvent(parser.ActionOutput, "TestFail", "    foo_test.go:10: boom\n"),
		testEvent(parser.ActionFail, "TestFail", ""),
		testEvent(parser.ActionFail, "", ""),
	)

	assert.True(t, simple.HasFailures())
	assert.Contains(t, output, "FAILURES")
	assert.Contains(t, output, format.SymbolFail+" TestFail")
	assert.Contains(t, output, "foo_test.go:10: boom")
	assert.Contains(t, output, "Failed:         1")
}

func TestSimpleOutput_EchoesRawAndBuildOutput(t *testing.T) {
	_, output := runSimple(t,
		engine.Event{Type: engine.EventRawLine, RawLine: []byte("not json")},
		engine.Event{Type: engine.EventTest, TestEvent: parser.TestEvent{
			Action: parser.ActionBuildOutput,
			Output: "# example.com/broken\n",
		}},
	)

	assert.Contains(t, output, "not json\n")
	assert.Contains(t, output, "# example.com/broken")
	assert.Less(t, bytes.Index([]byte(output), []byte("not json")), bytes.Index([]byte(output), []byte("OVERALL RESULTS")))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSimpleOutput_WriteError(t *testing.T) {
	sub := make(chan results.Event, 1)
	sub <- results.NewRawOutputEvent([]byte("line"))
	close(sub)

	simple := NewSimpleOutput(failingWriter{}, results.NewCollector())
	assert.EqualError(t, simple.ProcessEvents(sub), "disk full")
}
