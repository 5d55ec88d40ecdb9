package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the classification label of a student record
type Status string

const (
	StatusPass     Status = "Pass"
	StatusFail     Status = "Fail"
	StatusAbsent   Status = "Absent"
	StatusDetained Status = "Detained"
	StatusUnknown  Status = "Unknown"
)

// HasMarks reports whether records with this status carry a numeric mark
func (s Status) HasMarks() bool {
	return s == StatusPass || s == StatusFail
}

// RawTriple is one matched mark-sheet line before interpretation
type RawTriple struct {
	EnrollmentNo  string `json:"enrollmentNo"`
	Name          string `json:"name"`
	MarksOrStatus string `json:"marksOrStatus"`
}

// StudentRecord is a classified student result.
// Marks is valid if and only if Status is Pass or Fail.
type StudentRecord struct {
	EnrollmentNo string              `json:"enrollmentNo"`
	Name         string              `json:"name"`
	Marks        decimal.NullDecimal `json:"marks"`
	Status       Status              `json:"status"`
}

// Detained mirrors the boolean column written next to every non-detained sheet
func (r StudentRecord) Detained() bool {
	return r.Status == StatusDetained
}

// ResultBuckets partitions records with a known status, in document order
type ResultBuckets struct {
	Passed   []StudentRecord `json:"passed"`
	Failed   []StudentRecord `json:"failed"`
	Absent   []StudentRecord `json:"absent"`
	Detained []StudentRecord `json:"detained"`
}

// Len returns the number of records across all four buckets
func (b ResultBuckets) Len() int {
	return len(b.Passed) + len(b.Failed) + len(b.Absent) + len(b.Detained)
}

// Summary holds the aggregate counts reported alongside the buckets.
// Total includes Unknown records, which appear in no bucket.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Absent   int `json:"absent"`
	Detained int `json:"detained"`
	Unknown  int `json:"unknown"`
}

// ScanResult is the outcome of running one PDF through the pipeline
type ScanResult struct {
	Text    string          `json:"-"`
	Pages   int             `json:"pages"`
	Records []StudentRecord `json:"records"`
	Buckets ResultBuckets   `json:"buckets"`
	Summary Summary         `json:"summary"`

	OCRDuration time.Duration `json:"-"`
}

// NoData reports whether OCR produced nothing but whitespace
func (r ScanResult) NoData() bool {
	return strings.TrimSpace(r.Text) == ""
}

// ProcessResponse represents the output of the process-marksheet endpoint
type ProcessResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	NoData  bool           `json:"noData,omitempty"`
	RunID   string         `json:"runId,omitempty"`
	Summary *Summary       `json:"summary,omitempty"`
	Buckets *ResultBuckets `json:"buckets,omitempty"`

	ExportURL string `json:"exportUrl,omitempty"`
	SavedToDB bool   `json:"savedToDb"`

	// Processing metadata
	Pages         int     `json:"pages,omitempty"`
	OCRDuration   float64 `json:"ocrDuration,omitempty"`   // OCR time in seconds
	TotalDuration float64 `json:"totalDuration"`           // Total processing time
}
