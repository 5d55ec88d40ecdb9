package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.OCR.Engine != "tesseract" || cfg.Grading.EnrollmentPrefix != "0801" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Export.Filename != "student-marks.xlsx" {
		t.Errorf("export filename = %q", cfg.Export.Filename)
	}
}

func TestLoadFileOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
port: 9090
ocr:
  engine: ollama
  workers: 4
grading:
  enrollment_prefix: "0902"
`)
	cfg, err := load(path, env(nil))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.OCR.Engine != "ollama" || cfg.OCR.Workers != 4 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Grading.EnrollmentPrefix != "0902" {
		t.Errorf("prefix = %q", cfg.Grading.EnrollmentPrefix)
	}
	// untouched sections keep their defaults
	if cfg.PDF.DPI != 300 || cfg.OCR.Language != "eng" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "port: 9090\n")
	cfg, err := load(path, env(map[string]string{
		"PORT":              "7000",
		"OCR_ENGINE":        "openai",
		"OPENAI_API_KEY":    "sk-test",
		"ENROLLMENT_PREFIX": "0701",
		"PDF_RASTERIZER":    "embedded",
		"LOG_LEVEL":         "debug",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != 7000 || cfg.OCR.Engine != "openai" || cfg.AI.OpenAI.APIKey != "sk-test" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Grading.EnrollmentPrefix != "0701" || cfg.PDF.Rasterizer != "embedded" || cfg.LogLevel != "debug" {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{"bad yaml", "port: [", nil, "failed to parse config"},
		{"bad port env", "", map[string]string{"PORT": "eighty"}, "invalid PORT"},
		{"unknown engine", "ocr:\n  engine: easyocr\n", nil, "ocr.engine"},
		{"unknown rasterizer", "pdf:\n  rasterizer: ghostscript\n", nil, "pdf.rasterizer"},
		{"zero workers", "ocr:\n  workers: 0\n", nil, "ocr.workers"},
		{"empty prefix", "grading:\n  enrollment_prefix: \" \"\n", nil, "enrollment_prefix"},
		{"bad level", "log_level: loud\n", nil, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := load(writeConfig(t, tt.content), env(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn} {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
}
