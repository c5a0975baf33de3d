package results

// EventType identifies the type of event emitted by the Collector.
type EventType string

const (
	EventRunStarted     EventType = "run_started"     // The first test event arrived
	EventRunFinished    EventType = "run_finished"    // The input stream completed
	EventPackageUpdated EventType = "package_updated" // A package started or finished
	EventTestUpdated    EventType = "test_updated"    // A test started or finished
	EventRawOutput      EventType = "raw_output"      // Non-JSON line from the input
	EventNonTestOutput  EventType = "non_test_output" // Build errors, compilation output
)

// Event represents a high-level event emitted by the Collector.
type Event struct {
	Type        EventType
	PackageName string // For EventPackageUpdated, EventTestUpdated
	TestName    string // For EventTestUpdated
	RawLine     []byte // For EventRawOutput
	Output      string // For EventNonTestOutput
}

// NewTestUpdatedEvent creates a new TestUpdated event.
func NewTestUpdatedEvent(pkgName, testName string) Event {
	return Event{
		Type:        EventTestUpdated,
		PackageName: pkgName,
		TestName:    testName,
	}
}

// NewPackageUpdatedEvent creates a new PackageUpdated event.
func NewPackageUpdatedEvent(pkgName string) Event {
	return Event{
		Type:        EventPackageUpdated,
		PackageName: pkgName,
	}
}

// NewRawOutputEvent creates a new RawOutput event.
func NewRawOutputEvent(line []byte) Event {
	return Event{
		Type:    EventRawOutput,
		RawLine: line,
	}
}

// NewNonTestOutputEvent creates a new NonTestOutput event.
func NewNonTestOutputEvent(output string) Event {
	return Event{
		Type:   EventNonTestOutput,
		Output: output,
	}
}
