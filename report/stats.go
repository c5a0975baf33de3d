// Package report turns a result tree into counts, detail lists and webhook
// embeds.
package report

import "github.com/ansel1/tangcord/results"

// Stats holds the counts over every Test in a run. Suites are never counted.
//
// Total can exceed Passed+Failed+Skipped: a test with no result and a normal
// mode (e.g. interrupted) is counted only in Total.
type Stats struct {
	Passed  int
	Failed  int
	Skipped int
	Total   int
}

// Unclassified returns the number of tests counted only in Total.
func (s Stats) Unclassified() int {
	return s.Total - s.Passed - s.Failed - s.Skipped
}

// CalculateStats walks the tree once and counts its tests.
// Each test lands in at most one bucket, checked in order: pass, fail,
// skip/todo mode.
func CalculateStats(files []*results.File) Stats {
	var stats Stats
	results.WalkTests(files, func(test *results.Test, _ string) {
		stats.Total++
		switch {
		case test.State() == results.StatePass:
			stats.Passed++
		case test.State() == results.StateFail:
			stats.Failed++
		case test.Mode == results.ModeSkip || test.Mode == results.ModeTodo:
			stats.Skipped++
		}
	})
	return stats
}
