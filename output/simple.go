package output

import (
	"fmt"
	"io"

	"github.com/ansel1/tangcord/output/format"
	"github.com/ansel1/tangcord/report"
	"github.com/ansel1/tangcord/results"
)

// SimpleOutput writes plain text output for -notty mode.
// Raw lines and build output are echoed as they arrive; the summary is
// written once the collector finishes.
type SimpleOutput struct {
	writer    io.Writer
	collector *results.Collector
	formatter *format.SummaryFormatter
}

// NewSimpleOutput creates a simple output writer
func NewSimpleOutput(w io.Writer, collector *results.Collector, opts ...format.FormatterOption) *SimpleOutput {
	return &SimpleOutput{
		writer:    w,
		collector: collector,
		formatter: format.NewSummaryFormatter(80, opts...),
	}
}

// ProcessEvents consumes collector events until the channel is closed, then
// writes the summary.
func (s *SimpleOutput) ProcessEvents(events <-chan results.Event) error {
	for evt := range events {
		switch evt.Type {
		case results.EventRawOutput:
			if _, err := fmt.Fprintln(s.writer, string(evt.RawLine)); err != nil {
				return err
			}

		case results.EventNonTestOutput:
			if _, err := fmt.Fprintln(s.writer, evt.Output); err != nil {
				return err
			}
		}
	}
	return s.writeSummary()
}

func (s *SimpleOutput) writeSummary() error {
	summary := format.ComputeSummary(s.collector.Files(), s.collector.Packages(), s.collector.Duration())

	if _, err := fmt.Fprintln(s.writer); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.writer, s.formatter.Format(summary))
	return err
}

// HasFailures returns true if any tests failed
func (s *SimpleOutput) HasFailures() bool {
	return report.CalculateStats(s.collector.Files()).Failed > 0
}
