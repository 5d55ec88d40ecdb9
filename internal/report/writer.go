package report

import (
	"fmt"
	"io"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// Output formats accepted by New
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Writer outputs a scan result in one format
type Writer interface {
	Write(source string, result *models.ScanResult) (int, error)
}

// New returns the writer for format
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use text, markdown or json)", format)
	}
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// marks formats a record's marks, or "-" when it has none
func marks(r models.StudentRecord) string {
	if !r.Marks.Valid {
		return "-"
	}
	return r.Marks.Decimal.String()
}
