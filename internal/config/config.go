// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// DefaultPath is the config file read when no path is given
const DefaultPath = "config.yaml"

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*models.Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*models.Config, error) {
	config := models.DefaultConfig()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&config, getenv); err != nil {
		return nil, err
	}
	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyEnv overrides config with environment variables if present
func applyEnv(config *models.Config, getenv func(string) string) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &config.Port},
		{"OCR_WORKERS", &config.OCR.Workers},
		{"PDF_DPI", &config.PDF.DPI},
	}
	for _, v := range ints {
		raw := getenv(v.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
		*v.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"HOST", &config.Host},
		{"OCR_ENGINE", &config.OCR.Engine},
		{"OCR_LANGUAGE", &config.OCR.Language},
		{"PDF_RASTERIZER", &config.PDF.Rasterizer},
		{"ENROLLMENT_PREFIX", &config.Grading.EnrollmentPrefix},
		{"OPENAI_API_KEY", &config.AI.OpenAI.APIKey},
		{"OPENAI_BASE_URL", &config.AI.OpenAI.BaseURL},
		{"OPENAI_MODEL", &config.AI.OpenAI.Model},
		{"GEMINI_API_KEY", &config.AI.Gemini.APIKey},
		{"GEMINI_MODEL", &config.AI.Gemini.Model},
		{"OLLAMA_BASE_URL", &config.AI.Ollama.BaseURL},
		{"OLLAMA_MODEL", &config.AI.Ollama.Model},
		{"LOG_LEVEL", &config.LogLevel},
	}
	for _, v := range strs {
		if raw := getenv(v.key); raw != "" {
			*v.dst = raw
		}
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with
func Validate(config *models.Config) error {
	var errs []error

	switch config.OCR.Engine {
	case "tesseract", "openai", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Errorf("ocr.engine %q: use tesseract, openai, gemini or ollama", config.OCR.Engine))
	}
	switch config.PDF.Rasterizer {
	case "", "auto", "pdftoppm", "embedded":
	default:
		errs = append(errs, fmt.Errorf("pdf.rasterizer %q: use auto, pdftoppm or embedded", config.PDF.Rasterizer))
	}
	if config.OCR.Workers < 1 {
		errs = append(errs, fmt.Errorf("ocr.workers must be at least 1, got %d", config.OCR.Workers))
	}
	if config.PDF.DPI < 72 || config.PDF.DPI > 1200 {
		errs = append(errs, fmt.Errorf("pdf.dpi must be between 72 and 1200, got %d", config.PDF.DPI))
	}
	if strings.TrimSpace(config.Grading.EnrollmentPrefix) == "" {
		errs = append(errs, errors.New("grading.enrollment_prefix must not be empty"))
	}
	if config.Port <= 0 || config.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", config.Port))
	}
	if _, err := ParseLevel(config.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps a log level name to its slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", name, err)
	}
	return level, nil
}

// NewLogger returns a text logger writing to w at the given level
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
