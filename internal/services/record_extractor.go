package services

import (
	"regexp"
	"strings"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// DefaultEnrollmentPrefix is the institutional prefix every enrollment number starts with
const DefaultEnrollmentPrefix = "0801"

// recordGrammar matches one student line, case-insensitively:
//
//	enrollment  PREFIX followed by letters/digits, optionally ending in a letter
//	name        letters and spaces, matched lazily
//	annotation  optional "( ... )", discarded
//	token       marks (digits with an optional fraction), A, None, Absent, abs, D,
//	            or any other run of non-space characters containing a non-letter
//
// Marks and status words must end at a word boundary, so a status word never
// matches as the prefix of a surname ("Doe" is not "D") while punctuation OCR
// glues to a token is left behind ("25," reads 25, "Absent." reads Absent).
// The catch-all token must be followed by whitespace or end of text.
// A line with no token at all absorbs the next line's enrollment number as its
// token; the record then classifies as Unknown and the next line is lost.
const recordGrammar = `(?i)(%s[A-Z0-9]*[A-Z]?)\s+([A-Z\s]+?)(?:\s*\(.*?\))?\s+(\d+(?:\.\d+)?\b|A\b|None\b|Absent\b|abs\b|D\b|\S*[^A-Z\s]\S*(?:\s|$))`

// RecordExtractor pulls raw (enrollment, name, token) triples out of OCR text
type RecordExtractor struct {
	pattern *regexp.Regexp
}

// NewRecordExtractor compiles the grammar for the given enrollment prefix.
// An empty prefix selects DefaultEnrollmentPrefix.
func NewRecordExtractor(prefix string) *RecordExtractor {
	if prefix == "" {
		prefix = DefaultEnrollmentPrefix
	}
	return &RecordExtractor{
		pattern: regexp.MustCompile(strings.Replace(recordGrammar, "%s", regexp.QuoteMeta(prefix), 1)),
	}
}

// Extract scans the whole blob left to right and returns one triple per
// non-overlapping match, with every span trimmed
func (e *RecordExtractor) Extract(text string) []models.RawTriple {
	matches := e.pattern.FindAllStringSubmatch(text, -1)
	triples := make([]models.RawTriple, 0, len(matches))
	for _, m := range matches {
		triples = append(triples, models.RawTriple{
			EnrollmentNo:  strings.TrimSpace(m[1]),
			Name:          strings.TrimSpace(m[2]),
			MarksOrStatus: strings.TrimSpace(m[3]),
		})
	}
	return triples
}
