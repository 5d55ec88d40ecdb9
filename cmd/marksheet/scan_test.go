package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/marksheetIA/marksheet-ocr-service/internal/export"
	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
	"github.com/marksheetIA/marksheet-ocr-service/internal/raster"
	"github.com/marksheetIA/marksheet-ocr-service/internal/services"
)

const fourStudents = "0801CS021 John Smith 25\n0801CS022 Jane Doe Absent\n0801CS023 Amit Roy D\n0801CS024 Sam Lee 10\n"

// textScanner skips OCR and classifies a fixed text blob
type textScanner struct {
	text string
	err  error
}

func (s textScanner) Scan(context.Context, []byte) (*models.ScanResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if strings.TrimSpace(s.text) == "" {
		return &models.ScanResult{Pages: 1}, services.ErrNoData
	}
	result := services.NewScanner(nil, nil, nil, nil).ProcessText(s.text)
	result.Pages = 1
	return result, nil
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestRunScanTextSummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts := scanOptions{input: writePDF(t), format: "text", students: true}
	if err := runScan(context.Background(), textScanner{text: fourStudents}, opts, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"MARK-SHEET SUMMARY", "results.pdf", "Total:    4", "Passed:   1", "John Smith"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestRunScanFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: "markdown",
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "# Mark-sheet Summary") {
					t.Errorf("expected markdown heading, got:\n%s", out)
				}
			},
		},
		{
			format: "json",
			check: func(t *testing.T, out string) {
				var decoded struct {
					Source string `json:"source"`
					Result struct {
						Summary models.Summary `json:"summary"`
					} `json:"result"`
				}
				if err := json.Unmarshal([]byte(out), &decoded); err != nil {
					t.Fatalf("invalid json: %v\n%s", err, out)
				}
				if decoded.Result.Summary.Total != 4 {
					t.Errorf("total = %d, want 4", decoded.Result.Summary.Total)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			opts := scanOptions{input: writePDF(t), format: tt.format}
			if err := runScan(context.Background(), textScanner{text: fourStudents}, opts, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, out.String())
		})
	}
}

func TestRunScanWritesWorkbook(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "nested", "student-marks.xlsx")
	opts := scanOptions{input: writePDF(t), output: output}
	if err := runScan(context.Background(), textScanner{text: fourStudents}, opts, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	want := []string{export.SheetPassed, export.SheetFailed, export.SheetAbsent, export.SheetDetained}
	got := f.GetSheetList()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("sheets = %v, want %v", got, want)
	}
}

func TestRunScanErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		opts := scanOptions{input: filepath.Join(t.TempDir(), "missing.pdf")}
		if err := runScan(context.Background(), textScanner{text: fourStudents}, opts, &bytes.Buffer{}); err == nil {
			t.Fatal("expected error for missing input")
		}
	})

	t.Run("no data", func(t *testing.T) {
		t.Parallel()
		opts := scanOptions{input: writePDF(t)}
		err := runScan(context.Background(), textScanner{}, opts, &bytes.Buffer{})
		if err == nil || err.Error() != services.NoDataMessage {
			t.Fatalf("expected %q, got %v", services.NoDataMessage, err)
		}
	})

	t.Run("unreadable document", func(t *testing.T) {
		t.Parallel()
		opts := scanOptions{input: writePDF(t)}
		s := textScanner{err: raster.ErrUnreadableDocument}
		if err := runScan(context.Background(), s, opts, &bytes.Buffer{}); !errors.Is(err, raster.ErrUnreadableDocument) {
			t.Fatalf("expected ErrUnreadableDocument, got %v", err)
		}
	})

	t.Run("nothing to export", func(t *testing.T) {
		t.Parallel()
		output := filepath.Join(t.TempDir(), "out.xlsx")
		opts := scanOptions{input: writePDF(t), output: output}
		err := runScan(context.Background(), textScanner{text: "no students here"}, opts, &bytes.Buffer{})
		if !errors.Is(err, export.ErrNothingToExport) {
			t.Fatalf("expected ErrNothingToExport, got %v", err)
		}
		if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
			t.Error("expected no workbook to be written")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		if _, err := newReportWriter(scanOptions{format: "csv"}, &bytes.Buffer{}); err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}

func TestBuildConfigFlagOverrides(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	scan, _, err := cmd.Find([]string{"scan"})
	if err != nil {
		t.Fatalf("scan command not found: %v", err)
	}

	missing := filepath.Join(t.TempDir(), "none.yaml")
	if err := cmd.PersistentFlags().Set("config", missing); err != nil {
		t.Fatal(err)
	}
	for name, value := range map[string]string{
		"engine":     "ollama",
		"rasterizer": "embedded",
		"workers":    "3",
		"prefix":     "0902",
	} {
		if err := scan.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	cfg, err := buildConfig(scan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OCR.Engine != "ollama" || cfg.PDF.Rasterizer != "embedded" || cfg.OCR.Workers != 3 || cfg.Grading.EnrollmentPrefix != "0902" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	if err := scan.Flags().Set("workers", "0"); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(scan); err == nil {
		t.Error("expected validation error for zero workers")
	}
}
