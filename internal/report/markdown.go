package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// MarkdownWriter outputs the summary and buckets as Markdown tables
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the report
func (w *MarkdownWriter) Write(source string, result *models.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Mark-sheet Summary")
	md.PlainText("")
	if source != "" {
		md.PlainText("Source: `" + source + "`")
		md.PlainText("")
	}

	s := result.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Result", "Students"},
		Rows: [][]string{
			{"Passed", strconv.Itoa(s.Passed)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Absent", strconv.Itoa(s.Absent)},
			{"Detained", strconv.Itoa(s.Detained)},
			{"Unknown", strconv.Itoa(s.Unknown)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Unknown > 0 {
		md.Warningf("%d record(s) had an unrecognized marks token and are not exported.", s.Unknown)
		md.PlainText("")
	}

	w.writeBucket(md, "Passed Students", result.Buckets.Passed)
	w.writeBucket(md, "Failed Students", result.Buckets.Failed)
	w.writeBucket(md, "Absent Students", result.Buckets.Absent)
	w.writeBucket(md, "Detained Students", result.Buckets.Detained)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeBucket(md *markdown.Markdown, title string, records []models.StudentRecord) {
	if len(records) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.EnrollmentNo, r.Name, marks(r), string(r.Status)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Enrollment No", "Name", "Marks", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}
