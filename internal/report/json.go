package report

import (
	"encoding/json"
	"io"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// JSONWriter outputs the scan result as JSON
type JSONWriter struct {
	baseWriter

	indent string
}

// JSONWriterOption configures a JSONWriter
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output with two spaces
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport wraps the result with the file it came from
type jsonReport struct {
	Source string             `json:"source,omitempty"`
	Result *models.ScanResult `json:"result"`
}

// Write marshals the report followed by a newline
func (w *JSONWriter) Write(source string, result *models.ScanResult) (int, error) {
	var (
		data []byte
		err  error
	)
	report := jsonReport{Source: source, Result: result}
	if w.indent != "" {
		data, err = json.MarshalIndent(report, "", w.indent)
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
