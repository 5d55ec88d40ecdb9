// Package export writes classified student records to an xlsx workbook.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// DefaultFilename is the download name of the generated workbook
const DefaultFilename = "student-marks.xlsx"

// Sheet names, in workbook order
const (
	SheetPassed   = "Passed Students"
	SheetFailed   = "Failed Students"
	SheetAbsent   = "Absent Students"
	SheetDetained = "Detained Students"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNothingToExport is returned when every bucket is empty
var ErrNothingToExport = errors.New("no records to export")

var baseColumns = []any{"Enrollment No", "Name", "Marks", "Status"}

type sheet struct {
	name         string
	records      []models.StudentRecord
	detainedFlag bool
}

// WriteWorkbook writes one sheet per non-empty bucket to w.
// The Passed, Failed and Absent sheets carry an extra boolean Detained column.
func WriteWorkbook(w io.Writer, b models.ResultBuckets) error {
	f, err := buildWorkbook(b)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// Workbook renders the workbook into memory
func Workbook(b models.ResultBuckets) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildWorkbook(b models.ResultBuckets) (*excelize.File, error) {
	sheets := []sheet{
		{name: SheetPassed, records: b.Passed, detainedFlag: true},
		{name: SheetFailed, records: b.Failed, detainedFlag: true},
		{name: SheetAbsent, records: b.Absent, detainedFlag: true},
		{name: SheetDetained, records: b.Detained},
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("export failed: %w", err)
	}

	written := 0
	for _, s := range sheets {
		if len(s.records) == 0 {
			continue
		}
		if err := writeSheet(f, s, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("export failed: sheet %q: %w", s.name, err)
		}
		written++
	}
	if written == 0 {
		f.Close()
		return nil, ErrNothingToExport
	}

	// NewFile starts with a default sheet that none of ours replace
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("export failed: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if _, err := f.NewSheet(s.name); err != nil {
		return err
	}

	columns := append([]any{}, baseColumns...)
	if s.detainedFlag {
		columns = append(columns, "Detained")
	}
	if err := f.SetSheetRow(s.name, "A1", &columns); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range s.records {
		row := []any{r.EnrollmentNo, r.Name, marksCell(r), string(r.Status)}
		if s.detainedFlag {
			row = append(row, r.Detained())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(s.name, "A", "A", 16); err != nil {
		return err
	}
	return f.SetColWidth(s.name, "B", "B", 28)
}

// marksCell writes marks as a number; records without marks get an empty cell
func marksCell(r models.StudentRecord) any {
	if !r.Marks.Valid {
		return ""
	}
	return r.Marks.Decimal.InexactFloat64()
}
