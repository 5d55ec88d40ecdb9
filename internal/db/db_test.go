package db

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

func TestDatabaseURLFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"nothing configured", nil, ""},
		{"url wins", map[string]string{"DATABASE_URL": "postgres://x", "DB_HOST": "h"}, "postgres://x"},
		{
			"built from parts",
			map[string]string{"DB_HOST": "db", "DB_USER": "ocr", "DB_PASSWORD": "secret", "DB_NAME": "marks"},
			"postgresql://ocr:secret@db:5432/marks?sslmode=disable",
		},
		{"incomplete parts", map[string]string{"DB_HOST": "db", "DB_USER": "ocr"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := databaseURLFromEnv(func(k string) string { return tt.env[k] })
			if got != tt.want {
				t.Errorf("databaseURLFromEnv = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchiveWithoutPool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if Available() {
		t.Skip("pool initialized elsewhere")
	}
	if err := SaveRun(ctx, &Run{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SaveRun error = %v", err)
	}
	if _, err := GetRuns(ctx, 10); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GetRuns error = %v", err)
	}
	if _, err := GetRunByID(ctx, "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GetRunByID error = %v", err)
	}
	if err := DeleteRun(ctx, "x"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("DeleteRun error = %v", err)
	}
	if err := Ping(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping error = %v", err)
	}
}

func TestMarksText(t *testing.T) {
	t.Parallel()

	if marksText(decimal.NullDecimal{}) != nil {
		t.Error("absent marks should be NULL")
	}
	if got := marksText(decimal.NewNullDecimal(decimal.RequireFromString("21.5"))); got == nil || *got != "21.5" {
		t.Errorf("marksText = %v", got)
	}
}

func TestMarksTextRoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"25", "21.5", "0.5", "21.999", "100"} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			got, err := parseMarksText(marksText(decimal.NewNullDecimal(decimal.RequireFromString(in))))
			if err != nil {
				t.Fatalf("parseMarksText: %v", err)
			}
			if !got.Valid || got.Decimal.String() != in {
				t.Errorf("round trip of %s = %+v", in, got)
			}
		})
	}

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		got, err := parseMarksText(marksText(decimal.NullDecimal{}))
		if err != nil || got.Valid {
			t.Errorf("absent marks = %+v, %v", got, err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		bad := "n/a"
		if _, err := parseMarksText(&bad); err == nil {
			t.Error("expected error for non-numeric text")
		}
	})
}

// TestSaveRunRoundTrip needs a disposable database; it changes the package pool,
// so it does not run in parallel.
func TestSaveRunRoundTrip(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	ctx := context.Background()
	run := &Run{
		ID:       uuid.New(),
		Filename: "results.pdf",
		Pages:    1,
		Summary:  models.Summary{Total: 3, Passed: 1, Failed: 1, Absent: 1},
		Records: []models.StudentRecord{
			{EnrollmentNo: "0801CS021", Name: "John Smith", Marks: decimal.NewNullDecimal(decimal.RequireFromString("25")), Status: models.StatusPass},
			{EnrollmentNo: "0801CS024", Name: "Sam Lee", Marks: decimal.NewNullDecimal(decimal.RequireFromString("21.999")), Status: models.StatusFail},
			{EnrollmentNo: "0801CS022", Name: "Jane Doe", Status: models.StatusAbsent},
		},
	}
	if err := SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	defer DeleteRun(ctx, run.ID.String())

	got, err := GetRunByID(ctx, run.ID.String())
	if err != nil {
		t.Fatalf("GetRunByID: %v", err)
	}
	if got.Summary != run.Summary {
		t.Errorf("summary = %+v, want %+v", got.Summary, run.Summary)
	}
	if len(got.Records) != len(run.Records) {
		t.Fatalf("records = %d, want %d", len(got.Records), len(run.Records))
	}
	for i, want := range run.Records {
		r := got.Records[i]
		if r.EnrollmentNo != want.EnrollmentNo || r.Status != want.Status || r.Marks.Valid != want.Marks.Valid {
			t.Errorf("record %d = %+v, want %+v", i, r, want)
			continue
		}
		if want.Marks.Valid && !r.Marks.Decimal.Equal(want.Marks.Decimal) {
			t.Errorf("record %d marks = %s, want %s", i, r.Marks.Decimal, want.Marks.Decimal)
		}
	}
}
