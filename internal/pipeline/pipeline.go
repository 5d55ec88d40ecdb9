// Package pipeline assembles the mark-sheet scanner from configuration.
// Both the HTTP server and the CLI build their scanner here.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/marksheetIA/marksheet-ocr-service/internal/ai"
	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
	"github.com/marksheetIA/marksheet-ocr-service/internal/ocr"
	"github.com/marksheetIA/marksheet-ocr-service/internal/ocr/tesseract"
	"github.com/marksheetIA/marksheet-ocr-service/internal/raster"
	"github.com/marksheetIA/marksheet-ocr-service/internal/services"
)

// Option tweaks how the scanner is assembled
type Option func(*options)

type options struct {
	debugDir string
}

// WithDebugDir saves normalized pages under dir
func WithDebugDir(dir string) Option {
	return func(o *options) { o.debugDir = dir }
}

// Pipeline is an assembled scanner plus the resources it owns
type Pipeline struct {
	*services.Scanner
	oracle ocr.Oracle
}

// Oracle returns the engine pages are read with
func (p *Pipeline) Oracle() ocr.Oracle {
	return p.oracle
}

// Close releases the oracle when it holds native resources
func (p *Pipeline) Close() error {
	if c, ok := p.oracle.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewOracle builds the OCR engine named by cfg.OCR.Engine
func NewOracle(cfg *models.Config, logger *slog.Logger) (ocr.Oracle, error) {
	switch cfg.OCR.Engine {
	case "tesseract", "":
		oracle, err := tesseract.New(cfg.OCR.Language)
		if err != nil {
			return nil, fmt.Errorf("tesseract: %w", err)
		}
		return oracle, nil
	default:
		provider, err := ai.NewProvider(cfg.OCR.Engine, cfg.AI)
		if err != nil {
			return nil, err
		}
		return ai.NewVisionOracle(provider, logger), nil
	}
}

// New builds the rasterizer, recognizer and record extractor for cfg
func New(cfg *models.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rasterizer, err := raster.New(cfg.PDF, logger)
	if err != nil {
		return nil, err
	}

	oracle, err := NewOracle(cfg, logger)
	if err != nil {
		return nil, err
	}

	recognizer := ocr.NewRecognizer(oracle,
		ocr.WithWorkers(cfg.OCR.Workers),
		ocr.WithDebugDir(o.debugDir),
		ocr.WithLogger(logger),
	)
	extractor := services.NewRecordExtractor(cfg.Grading.EnrollmentPrefix)

	return &Pipeline{
		Scanner: services.NewScanner(rasterizer, recognizer, extractor, logger),
		oracle:  oracle,
	}, nil
}
