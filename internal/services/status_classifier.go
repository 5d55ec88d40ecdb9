package services

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// PassMark is the minimum mark that passes, inclusive
const PassMark = 22

var (
	passMark = decimal.NewFromInt(PassMark)

	// digits with at most one decimal point: "25", "25.5", "25.", ".5"
	numericToken = regexp.MustCompile(`^(?:\d+\.?\d*|\.\d+)$`)
)

// Classify turns one raw triple into a student record
func Classify(t models.RawTriple) models.StudentRecord {
	rec := models.StudentRecord{
		EnrollmentNo: strings.TrimSpace(t.EnrollmentNo),
		Name:         strings.TrimSpace(t.Name),
		Status:       models.StatusUnknown,
	}

	token := strings.ToLower(strings.TrimSpace(t.MarksOrStatus))
	switch token {
	case "a", "absent", "none", "abs":
		rec.Status = models.StatusAbsent
		return rec
	case "d":
		rec.Status = models.StatusDetained
		return rec
	}

	marks, ok := parseMarks(token)
	if !ok {
		return rec
	}
	rec.Marks = decimal.NewNullDecimal(marks)
	if marks.GreaterThanOrEqual(passMark) {
		rec.Status = models.StatusPass
	} else {
		rec.Status = models.StatusFail
	}
	return rec
}

// ClassifyAll classifies triples in order. Triples whose enrollment number or
// name is blank are dropped.
func ClassifyAll(triples []models.RawTriple) []models.StudentRecord {
	records := make([]models.StudentRecord, 0, len(triples))
	for _, t := range triples {
		if strings.TrimSpace(t.EnrollmentNo) == "" || strings.TrimSpace(t.Name) == "" {
			continue
		}
		records = append(records, Classify(t))
	}
	return records
}

func parseMarks(token string) (decimal.Decimal, bool) {
	if !numericToken.MatchString(token) {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(token, ".") {
		token = "0" + token
	}
	token = strings.TrimSuffix(token, ".")
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
