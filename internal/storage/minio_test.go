package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	got := ObjectName(now, "5f0c", "student-marks.xlsx")
	if want := "2026/03/5f0c/student-marks.xlsx"; got != want {
		t.Errorf("ObjectName = %q, want %q", got, want)
	}
}

func TestObjectKey(t *testing.T) {
	BucketName = "marksheets"
	t.Cleanup(func() { BucketName = "" })

	if got := objectKey("marksheets/2026/03/x/a.pdf"); got != "2026/03/x/a.pdf" {
		t.Errorf("objectKey stripped to %q", got)
	}
	if got := objectKey("2026/03/x/a.pdf"); got != "2026/03/x/a.pdf" {
		t.Errorf("objectKey changed unprefixed path to %q", got)
	}
}

func TestWithoutClient(t *testing.T) {
	if Available() {
		t.Skip("client initialized elsewhere")
	}
	ctx := context.Background()
	if _, err := UploadRunFile(ctx, "r", "f", nil, "application/pdf"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("UploadRunFile error = %v", err)
	}
	if _, err := GetPresignedURL(ctx, "p", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GetPresignedURL error = %v", err)
	}
	if err := Ping(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping error = %v", err)
	}
}
