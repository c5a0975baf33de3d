package results

import (
	"strings"
	"sync"
	"time"

	"github.com/ansel1/tangcord/engine"
	"github.com/ansel1/tangcord/parser"
)

// packageState is the collector's mutable view of one package.
type packageState struct {
	name      string
	status    string // "", parser.ActionPass, parser.ActionFail, parser.ActionSkip
	elapsed   time.Duration
	output    []string // package-level output, e.g. from TestMain or init
	tests     map[string]*testState // full test name -> state
	rootOrder []string              // top-level tests in start order
}

// testState is the collector's mutable view of one test or subtest.
type testState struct {
	name     string // last path segment, e.g. "case_1" of "TestA/case_1"
	action   string // last terminal action, "" while running
	output   []string
	children []string // full names of direct subtests in start order
}

// Collector builds a result tree from engine events.
//
// Packages become Files in order of first appearance. Tests nest by their
// "/"-separated subtest names; a test with subtests becomes a Suite.
// The Collector is safe for concurrent use: ProcessEvents typically runs in
// its own goroutine while the TUI reads snapshots.
type Collector struct {
	mu            sync.RWMutex
	packages      map[string]*packageState
	packageOrder  []string
	nonTestOutput []string
	startTime     time.Time
	endTime       time.Time
	started       bool
	finished      bool

	subscribers []chan Event
	subMu       sync.Mutex
}

// NewCollector creates a new result collector.
func NewCollector() *Collector {
	return &Collector{
		packages: make(map[string]*packageState),
	}
}

// Subscribe returns a channel that will receive result events.
// The caller should read from this channel until it is closed.
func (c *Collector) Subscribe() <-chan Event {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan Event, 100)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// emit sends an event to all subscribers.
func (c *Collector) emit(evt Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, sub := range c.subscribers {
		sub <- evt
	}
}

// closeSubscribers closes all subscriber channels.
func (c *Collector) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, sub := range c.subscribers {
		close(sub)
	}
	c.subscribers = nil
}

// ProcessEvents consumes engine events until EventComplete or until the
// channel closes, then finishes the run and closes all subscribers.
// Read errors are returned in the order they were seen.
func (c *Collector) ProcessEvents(events <-chan engine.Event) []error {
	var errs []error
	for evt := range events {
		if evt.Type == engine.EventError {
			errs = append(errs, evt.Error)
			continue
		}
		if evt.Type == engine.EventComplete {
			break
		}
		c.Push(evt)
	}
	c.Finish()
	c.closeSubscribers()
	return errs
}

// Push processes a single engine event.
func (c *Collector) Push(evt engine.Event) {
	switch evt.Type {
	case engine.EventRawLine:
		c.emit(NewRawOutputEvent(evt.RawLine))

	case engine.EventTest:
		for _, e := range c.handleTestEvent(evt.TestEvent) {
			c.emit(e)
		}
	}
}

// handleTestEvent updates the state and returns events to emit after the
// lock is released.
func (c *Collector) handleTestEvent(event parser.TestEvent) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toEmit []Event
	if !c.started {
		c.started = true
		c.startTime = time.Now()
		toEmit = append(toEmit, Event{Type: EventRunStarted})
	}

	if event.Package == "" {
		switch event.Action {
		case parser.ActionBuildOutput, parser.ActionBuildFail:
			if output := strings.TrimRight(event.Output, "\n"); output != "" {
				c.nonTestOutput = append(c.nonTestOutput, output)
				toEmit = append(toEmit, NewNonTestOutputEvent(output))
			}
		}
		return toEmit
	}

	pkg, exists := c.packages[event.Package]
	if !exists {
		pkg = &packageState{
			name:  event.Package,
			tests: make(map[string]*testState),
		}
		c.packages[event.Package] = pkg
		c.packageOrder = append(c.packageOrder, event.Package)
		toEmit = append(toEmit, NewPackageUpdatedEvent(pkg.name))
	}

	if event.Test == "" {
		switch {
		case event.Action == parser.ActionOutput:
			if line, ok := packageOutputLine(event.Output); ok {
				pkg.output = append(pkg.output, line)
			}
		case event.IsTerminal():
			pkg.status = event.Action
			pkg.elapsed = event.ElapsedDuration()
			if event.FailedBuild != "" {
				pkg.output = append(pkg.output, "build failed: "+event.FailedBuild)
			}
			toEmit = append(toEmit, NewPackageUpdatedEvent(pkg.name))
		}
		return toEmit
	}

	test := c.ensureTest(pkg, event.Test)
	switch event.Action {
	case parser.ActionOutput:
		if line, ok := testOutputLine(event.Output); ok {
			test.output = append(test.output, line)
		}
	case parser.ActionPass, parser.ActionFail, parser.ActionSkip:
		test.action = event.Action
		toEmit = append(toEmit, NewTestUpdatedEvent(pkg.name, event.Test))
	case parser.ActionRun, parser.ActionCont:
		toEmit = append(toEmit, NewTestUpdatedEvent(pkg.name, event.Test))
	}
	return toEmit
}

// ensureTest returns the state for fullName, creating it and any missing
// ancestors.
func (c *Collector) ensureTest(pkg *packageState, fullName string) *testState {
	if ts, ok := pkg.tests[fullName]; ok {
		return ts
	}

	ts := &testState{name: fullName}
	pkg.tests[fullName] = ts

	if idx := strings.LastIndex(fullName, "/"); idx > 0 {
		ts.name = fullName[idx+1:]
		parent := c.ensureTest(pkg, fullName[:idx])
		parent.children = append(parent.children, fullName)
	} else {
		pkg.rootOrder = append(pkg.rootOrder, fullName)
	}
	return ts
}

// testOutputLine strips test2json framing lines (=== RUN, --- FAIL, ...)
// and indentation from a test's output.
func testOutputLine(output string) (string, bool) {
	line := strings.TrimRight(output, "\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "=== ") || strings.HasPrefix(trimmed, "--- ") {
		return "", false
	}
	return trimmed, true
}

// packageOutputLine is testOutputLine minus the PASS/FAIL/ok trailer lines
// go test prints for every package.
func packageOutputLine(output string) (string, bool) {
	line, ok := testOutputLine(output)
	if !ok || line == "PASS" || line == "FAIL" {
		return "", false
	}
	for _, prefix := range []string{"ok ", "FAIL\t", "?"} {
		if strings.HasPrefix(line, prefix) {
			return "", false
		}
	}
	return line, true
}

// Finish marks the run as complete. Tests that never finished keep no
// result. Calling Finish more than once has no further effect.
func (c *Collector) Finish() {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.endTime = time.Now()
	c.mu.Unlock()

	c.emit(Event{Type: EventRunFinished})
}

// Files returns a snapshot of the result tree. The returned tree is not
// shared with the collector and may be read without synchronization.
func (c *Collector) Files() []*File {
	c.mu.RLock()
	defer c.mu.RUnlock()

	files := make([]*File, 0, len(c.packageOrder))
	for _, name := range c.packageOrder {
		pkg := c.packages[name]
		tasks := buildTasks(pkg, pkg.rootOrder)
		// A package can fail outside any test (TestMain, init, build).
		if pkg.status == parser.ActionFail && !anyFailed(pkg, pkg.rootOrder) {
			ps := &testState{name: pkg.name, action: parser.ActionFail, output: pkg.output}
			tasks = append(tasks, ps.toTest())
		}
		files = append(files, &File{
			Name:  pkg.name,
			Tasks: tasks,
		})
	}
	return files
}

func buildTasks(pkg *packageState, names []string) []Task {
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		ts := pkg.tests[name]
		if len(ts.children) > 0 {
			children := buildTasks(pkg, ts.children)
			// The parent's own failure (t.Error after its subtests passed)
			// becomes a leaf so it is counted.
			if ts.action == parser.ActionFail && !anyFailed(pkg, ts.children) {
				children = append(children, ts.toTest())
			}
			tasks = append(tasks, &Suite{
				Name:  ts.name,
				Tasks: children,
			})
			continue
		}
		tasks = append(tasks, ts.toTest())
	}
	return tasks
}

// anyFailed reports whether any of the named tests or their subtests failed.
func anyFailed(pkg *packageState, names []string) bool {
	for _, name := range names {
		ts := pkg.tests[name]
		if ts.action == parser.ActionFail || anyFailed(pkg, ts.children) {
			return true
		}
	}
	return false
}

func (ts *testState) toTest() *Test {
	test := &Test{Name: ts.name}
	switch ts.action {
	case parser.ActionPass:
		test.Result = &Result{State: StatePass}
	case parser.ActionSkip:
		test.Mode = ModeSkip
		test.Result = &Result{State: StateSkip}
	case parser.ActionFail:
		test.Result = &Result{State: StateFail}
		if testErr, ok := errorFromOutput(ts.output); ok {
			test.Result.Errors = []TestError{testErr}
		}
	}
	return test
}

// errorFromOutput turns a failed test's output into its error record.
// A panic line becomes the message and the goroutine dump the stack.
func errorFromOutput(lines []string) (TestError, bool) {
	if len(lines) == 0 {
		return TestError{}, false
	}
	for i, line := range lines {
		if strings.HasPrefix(line, "panic: ") {
			return TestError{
				Message: line,
				Stack:   strings.Join(lines[i+1:], "\n"),
			}, true
		}
	}
	return TestError{Message: strings.Join(lines, "\n")}, true
}

// NonTestOutput returns build output that did not belong to any package.
func (c *Collector) NonTestOutput() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.nonTestOutput))
	copy(out, c.nonTestOutput)
	return out
}

// Duration returns the wall time between the first event and Finish, or
// until now if the run is still in progress.
func (c *Collector) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return 0
	}
	end := c.endTime
	if !c.finished {
		end = time.Now()
	}
	return end.Sub(c.startTime)
}

// PackageInfo describes a package's progress.
type PackageInfo struct {
	Name    string
	Status  string // "pass", "fail", "skip", or "" while running
	Elapsed time.Duration
}

// Packages returns package progress in order of first appearance.
func (c *Collector) Packages() []PackageInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]PackageInfo, 0, len(c.packageOrder))
	for _, name := range c.packageOrder {
		pkg := c.packages[name]
		infos = append(infos, PackageInfo{Name: pkg.name, Status: pkg.status, Elapsed: pkg.elapsed})
	}
	return infos
}
