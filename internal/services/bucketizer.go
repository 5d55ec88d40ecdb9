package services

import "github.com/marksheetIA/marksheet-ocr-service/internal/models"

// Bucketize partitions records by status, preserving input order.
// Unknown records land in no bucket.
func Bucketize(records []models.StudentRecord) models.ResultBuckets {
	var b models.ResultBuckets
	for _, r := range records {
		switch r.Status {
		case models.StatusPass:
			b.Passed = append(b.Passed, r)
		case models.StatusFail:
			b.Failed = append(b.Failed, r)
		case models.StatusAbsent:
			b.Absent = append(b.Absent, r)
		case models.StatusDetained:
			b.Detained = append(b.Detained, r)
		}
	}
	return b
}

// Summarize counts the classified records and the size of each bucket
func Summarize(records []models.StudentRecord, b models.ResultBuckets) models.Summary {
	s := models.Summary{
		Total:    len(records),
		Passed:   len(b.Passed),
		Failed:   len(b.Failed),
		Absent:   len(b.Absent),
		Detained: len(b.Detained),
	}
	s.Unknown = s.Total - b.Len()
	return s
}
