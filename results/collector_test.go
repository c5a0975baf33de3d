package results

import (
	"testing"
	"time"

	"github.com/ansel1/tangcord/engine"
	"github.com/ansel1/tangcord/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(c *Collector, events ...parser.TestEvent) {
	for _, evt := range events {
		c.Push(engine.Event{Type: engine.EventTest, TestEvent: evt})
	}
}

func ev(action, pkg, test, output string) parser.TestEvent {
	return parser.TestEvent{
		Time:    time.Now(),
		Action:  action,
		Package: pkg,
		Test:    test,
		Output:  output,
	}
}

func TestCollector_BuildsFilesPerPackage(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("start", "example.com/b", "", ""),
		ev("run", "example.com/b", "TestOne", ""),
		ev("run", "example.com/a", "TestTwo", ""),
		ev("pass", "example.com/b", "TestOne", ""),
		ev("skip", "example.com/a", "TestTwo", ""),
		ev("pass", "example.com/b", "", ""),
	)

	files := c.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "example.com/b", files[0].Name)
	assert.Equal(t, "example.com/a", files[1].Name)

	one := files[0].Tasks[0].(*Test)
	assert.Equal(t, "TestOne", one.Name)
	assert.Equal(t, StatePass, one.State())

	two := files[1].Tasks[0].(*Test)
	assert.Equal(t, ModeSkip, two.Mode)
}

func TestCollector_SubtestsBecomeSuites(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestTable", ""),
		ev("run", "pkg", "TestTable/first", ""),
		ev("pass", "pkg", "TestTable/first", ""),
		ev("run", "pkg", "TestTable/second", ""),
		ev("output", "pkg", "TestTable/second", "    table_test.go:12: want 1, got 2\n"),
		ev("fail", "pkg", "TestTable/second", ""),
		ev("fail", "pkg", "TestTable", ""),
	)

	files := c.Files()
	require.Len(t, files, 1)
	require.Len(t, files[0].Tasks, 1)

	suite, ok := files[0].Tasks[0].(*Suite)
	require.True(t, ok, "parent test with subtests should be a suite")
	assert.Equal(t, "TestTable", suite.Name)
	require.Len(t, suite.Tasks, 2)

	first := suite.Tasks[0].(*Test)
	assert.Equal(t, "first", first.Name)
	assert.Equal(t, StatePass, first.State())

	second := suite.Tasks[1].(*Test)
	assert.Equal(t, "second", second.Name)
	assert.Equal(t, StateFail, second.State())
	testErr, ok := second.FirstError()
	require.True(t, ok)
	assert.Equal(t, "table_test.go:12: want 1, got 2", testErr.Message)
	assert.Empty(t, testErr.Stack)
}

func TestCollector_NestedSubtestWithoutParentRun(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestA/b/c", ""),
		ev("pass", "pkg", "TestA/b/c", ""),
	)

	var paths []string
	Walk(c.Files(), func(task Task, path string) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{
		"pkg > TestA",
		"pkg > TestA > b",
		"pkg > TestA > b > c",
	}, paths)
}

func TestCollector_PanicOutputBecomesStack(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestBoom", ""),
		ev("output", "pkg", "TestBoom", "=== RUN   TestBoom\n"),
		ev("output", "pkg", "TestBoom", "--- FAIL: TestBoom (0.00s)\n"),
		ev("output", "pkg", "TestBoom", "panic: runtime error: index out of range [recovered]\n"),
		ev("output", "pkg", "TestBoom", "goroutine 7 [running]:\n"),
		ev("output", "pkg", "TestBoom", "testing.tRunner.func1.2({0x1, 0x2})\n"),
		ev("fail", "pkg", "TestBoom", ""),
	)

	test := c.Files()[0].Tasks[0].(*Test)
	testErr, ok := test.FirstError()
	require.True(t, ok)
	assert.Equal(t, "panic: runtime error: index out of range [recovered]", testErr.Message)
	assert.Equal(t, "goroutine 7 [running]:\ntesting.tRunner.func1.2({0x1, 0x2})", testErr.Stack)
}

func TestCollector_ParentFailureAfterPassingSubtests(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestParent", ""),
		ev("run", "pkg", "TestParent/sub", ""),
		ev("pass", "pkg", "TestParent/sub", ""),
		ev("output", "pkg", "TestParent", "    parent_test.go:20: cleanup check failed\n"),
		ev("fail", "pkg", "TestParent", ""),
		ev("fail", "pkg", "", ""),
	)

	var failed []string
	WalkTests(c.Files(), func(test *Test, path string) {
		if test.State() == StateFail {
			failed = append(failed, path)
			testErr, ok := test.FirstError()
			require.True(t, ok)
			assert.Equal(t, "parent_test.go:20: cleanup check failed", testErr.Message)
		}
	})
	assert.Equal(t, []string{"pkg > TestParent > TestParent"}, failed)
}

func TestCollector_ParentFailureFromSubtestNotDuplicated(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestParent", ""),
		ev("run", "pkg", "TestParent/sub", ""),
		ev("fail", "pkg", "TestParent/sub", ""),
		ev("fail", "pkg", "TestParent", ""),
		ev("fail", "pkg", "", ""),
	)

	suite := c.Files()[0].Tasks[0].(*Suite)
	assert.Len(t, suite.Tasks, 1)
	assert.Len(t, c.Files()[0].Tasks, 1)
}

func TestCollector_PackageFailureWithoutFailedTests(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("start", "pkg", "", ""),
		ev("run", "pkg", "TestOK", ""),
		ev("pass", "pkg", "TestOK", ""),
		ev("output", "pkg", "", "PASS\n"),
		ev("output", "pkg", "", "TestMain: database unavailable\n"),
		ev("output", "pkg", "", "FAIL\tpkg\t0.01s\n"),
		ev("fail", "pkg", "", ""),
	)

	tasks := c.Files()[0].Tasks
	require.Len(t, tasks, 2)
	pkgTest := tasks[1].(*Test)
	assert.Equal(t, "pkg", pkgTest.Name)
	assert.Equal(t, StateFail, pkgTest.State())
	testErr, ok := pkgTest.FirstError()
	require.True(t, ok)
	assert.Equal(t, "TestMain: database unavailable", testErr.Message)
}

func TestCollector_FailedBuild(t *testing.T) {
	c := NewCollector()
	push(c, parser.TestEvent{Action: "fail", Package: "pkg", FailedBuild: "pkg.test"})

	tasks := c.Files()[0].Tasks
	require.Len(t, tasks, 1)
	testErr, ok := tasks[0].(*Test).FirstError()
	require.True(t, ok)
	assert.Equal(t, "build failed: pkg.test", testErr.Message)
}

func TestCollector_PassedPackageHasNoExtraTest(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestOK", ""),
		ev("pass", "pkg", "TestOK", ""),
		ev("output", "pkg", "", "ok  \tpkg\t0.01s\n"),
		ev("pass", "pkg", "", ""),
	)
	assert.Len(t, c.Files()[0].Tasks, 1)
}

func TestCollector_FailWithoutOutputHasNoErrors(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestQuiet", ""),
		ev("fail", "pkg", "TestQuiet", ""),
	)

	test := c.Files()[0].Tasks[0].(*Test)
	assert.Equal(t, StateFail, test.State())
	_, ok := test.FirstError()
	assert.False(t, ok)
}

func TestCollector_InterruptedTestHasNoResult(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("run", "pkg", "TestDone", ""),
		ev("pass", "pkg", "TestDone", ""),
		ev("run", "pkg", "TestHang", ""),
	)
	c.Finish()

	files := c.Files()
	require.Len(t, files[0].Tasks, 2)
	hang := files[0].Tasks[1].(*Test)
	assert.Nil(t, hang.Result)
	assert.Equal(t, ModeNormal, hang.Mode)
}

func TestCollector_NonTestOutput(t *testing.T) {
	c := NewCollector()
	push(c,
		parser.TestEvent{Action: "build-output", Output: "# example.com/broken\n"},
		parser.TestEvent{Action: "build-output", Output: "./x.go:3:1: syntax error\n"},
		parser.TestEvent{Action: "build-fail"},
	)

	assert.Equal(t, []string{"# example.com/broken", "./x.go:3:1: syntax error"}, c.NonTestOutput())
	assert.Empty(t, c.Files())
}

func TestCollector_Packages(t *testing.T) {
	c := NewCollector()
	push(c,
		ev("start", "pkg1", "", ""),
		ev("start", "pkg2", "", ""),
		parser.TestEvent{Action: "fail", Package: "pkg1", Elapsed: 1.5},
	)

	pkgs := c.Packages()
	require.Len(t, pkgs, 2)
	assert.Equal(t, PackageInfo{Name: "pkg1", Status: "fail", Elapsed: 1500 * time.Millisecond}, pkgs[0])
	assert.Equal(t, "", pkgs[1].Status)
}

func TestCollector_ProcessEventsClosesSubscribers(t *testing.T) {
	c := NewCollector()
	sub := c.Subscribe()

	events := make(chan engine.Event, 10)
	events <- engine.Event{Type: engine.EventRawLine, RawLine: []byte("hello")}
	events <- engine.Event{Type: engine.EventTest, TestEvent: ev("run", "pkg", "TestA", "")}
	events <- engine.Event{Type: engine.EventTest, TestEvent: ev("pass", "pkg", "TestA", "")}
	events <- engine.Event{Type: engine.EventComplete}
	close(events)

	var types []EventType
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range sub {
			types = append(types, evt.Type)
		}
	}()

	errs := c.ProcessEvents(events)
	<-done

	assert.Empty(t, errs)
	assert.Equal(t, []EventType{
		EventRawOutput,
		EventRunStarted,
		EventPackageUpdated,
		EventTestUpdated,
		EventTestUpdated,
		EventRunFinished,
	}, types)
}

func TestCollector_ProcessEventsReturnsErrors(t *testing.T) {
	c := NewCollector()
	events := make(chan engine.Event, 2)
	events <- engine.Event{Type: engine.EventError, Error: assert.AnError}
	events <- engine.Event{Type: engine.EventComplete}
	close(events)

	errs := c.ProcessEvents(events)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], assert.AnError)
}

func TestCollector_FilesSnapshotIsIndependent(t *testing.T) {
	c := NewCollector()
	push(c, ev("run", "pkg", "TestA", ""))

	before := c.Files()
	push(c, ev("pass", "pkg", "TestA", ""))

	assert.Nil(t, before[0].Tasks[0].(*Test).Result)
	assert.Equal(t, StatePass, c.Files()[0].Tasks[0].(*Test).State())
}
