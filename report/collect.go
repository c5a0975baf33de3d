package report

import (
	"strings"

	"github.com/ansel1/tangcord/results"
)

const (
	// UnknownError is used when a failed test carries no error message.
	UnknownError = "Unknown error"

	maxStackLength = 800
	stackTruncated = "\n... (truncated)"
)

// FailedTest is a failed test's path and formatted error text.
type FailedTest struct {
	Name  string
	Error string
}

// FailedTests returns every failed test in traversal order. With
// includeStackTrace, a non-empty stack is appended as a fenced block capped
// at 800 characters.
func FailedTests(files []*results.File, includeStackTrace bool) []FailedTest {
	var failed []FailedTest
	results.WalkTests(files, func(test *results.Test, path string) {
		if test.State() != results.StateFail {
			return
		}
		failed = append(failed, FailedTest{
			Name:  path,
			Error: formatError(test, includeStackTrace),
		})
	})
	return failed
}

func formatError(test *results.Test, includeStackTrace bool) string {
	testErr, ok := test.FirstError()
	message := testErr.Message
	if !ok || message == "" {
		message = UnknownError
	}
	if !includeStackTrace || testErr.Stack == "" {
		return message
	}

	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n```\n")
	b.WriteString(truncateWithMarker(testErr.Stack, maxStackLength, stackTruncated))
	b.WriteString("\n```")
	return b.String()
}

// PassedTests returns the path of every passed test in traversal order.
func PassedTests(files []*results.File) []string {
	var passed []string
	results.WalkTests(files, func(test *results.Test, path string) {
		if test.State() == results.StatePass {
			passed = append(passed, path)
		}
	})
	return passed
}
