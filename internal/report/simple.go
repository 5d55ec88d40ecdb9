package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// SimpleWriter outputs a plain text summary
type SimpleWriter struct {
	baseWriter

	// listStudents prints every bucketed record under its bucket
	listStudents bool
}

// SimpleWriterOption configures a SimpleWriter
type SimpleWriterOption func(*SimpleWriter)

// WithStudents lists the records of each bucket after the counts
func WithStudents(list bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.listStudents = list
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints the summary counts
func (w *SimpleWriter) Write(source string, result *models.ScanResult) (int, error) {
	var sb strings.Builder

	sb.WriteString("MARK-SHEET SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	if source != "" {
		fmt.Fprintf(&sb, "Source:   %s\n", source)
	}
	fmt.Fprintf(&sb, "Pages:    %d\n\n", result.Pages)

	s := result.Summary
	fmt.Fprintf(&sb, "Total:    %d\n", s.Total)
	fmt.Fprintf(&sb, "Passed:   %d\n", s.Passed)
	fmt.Fprintf(&sb, "Failed:   %d\n", s.Failed)
	fmt.Fprintf(&sb, "Absent:   %d\n", s.Absent)
	fmt.Fprintf(&sb, "Detained: %d\n", s.Detained)
	if s.Unknown > 0 {
		fmt.Fprintf(&sb, "Unknown:  %d (not exported)\n", s.Unknown)
	}

	if w.listStudents {
		writeBucket(&sb, "Passed", result.Buckets.Passed)
		writeBucket(&sb, "Failed", result.Buckets.Failed)
		writeBucket(&sb, "Absent", result.Buckets.Absent)
		writeBucket(&sb, "Detained", result.Buckets.Detained)
	}

	return w.output.Write([]byte(sb.String()))
}

func writeBucket(sb *strings.Builder, title string, records []models.StudentRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	for _, r := range records {
		fmt.Fprintf(sb, "  %-14s %-28s %s\n", r.EnrollmentNo, r.Name, marks(r))
	}
}
