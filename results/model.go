package results

// Mode is a test's execution directive, independent of its result state.
type Mode string

const (
	ModeNormal Mode = ""     // Run normally
	ModeSkip   Mode = "skip" // Skipped by the runner
	ModeTodo   Mode = "todo" // Declared but not implemented
)

// State is a test's outcome after execution.
type State string

const (
	StatePass    State = "pass"
	StateFail    State = "fail"
	StateSkip    State = "skip"
	StateRunning State = "run" // Started but never finished
)

// Task is a node in the result tree: either a *Suite or a *Test.
type Task interface {
	// TaskName returns the node's own name (not its path).
	TaskName() string
	isTask()
}

// Suite is a container node. It never contributes to counts itself.
type Suite struct {
	Name  string
	Tasks []Task // Ordered children
}

// Test is a leaf node with an outcome.
type Test struct {
	Name   string
	Mode   Mode
	Result *Result // nil if the test never produced a result
}

// Result holds the outcome of a single test.
type Result struct {
	State  State
	Errors []TestError // Only the first error is authoritative
}

// TestError is a single failure record attached to a result.
type TestError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// File is the root container of a run's result tree.
// For go test runs a File is one package.
type File struct {
	Name  string
	Tasks []Task
}

func (s *Suite) TaskName() string { return s.Name }
func (t *Test) TaskName() string  { return t.Name }

func (*Suite) isTask() {}
func (*Test) isTask()  {}

// State returns the test's result state, or "" if it has no result.
func (t *Test) State() State {
	if t.Result == nil {
		return ""
	}
	return t.Result.State
}

// FirstError returns the authoritative error of a failed test, if any.
func (t *Test) FirstError() (TestError, bool) {
	if t.Result == nil || len(t.Result.Errors) == 0 {
		return TestError{}, false
	}
	return t.Result.Errors[0], true
}

// NewSuite creates a suite with the given children.
func NewSuite(name string, tasks ...Task) *Suite {
	return &Suite{Name: name, Tasks: tasks}
}

// NewFile creates a file with the given top-level tasks.
func NewFile(name string, tasks ...Task) *File {
	return &File{Name: name, Tasks: tasks}
}

// Passed returns a test whose result state is pass.
func Passed(name string) *Test {
	return &Test{Name: name, Result: &Result{State: StatePass}}
}

// Failed returns a failed test carrying one error.
func Failed(name, message, stack string) *Test {
	return &Test{
		Name: name,
		Result: &Result{
			State:  StateFail,
			Errors: []TestError{{Message: message, Stack: stack}},
		},
	}
}

// Skipped returns a test in skip mode without a result.
func Skipped(name string) *Test {
	return &Test{Name: name, Mode: ModeSkip}
}
