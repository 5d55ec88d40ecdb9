// Package raster turns PDF documents into ordered page images.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os/exec"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

// Rasterizer modes accepted in the pdf.rasterizer setting
const (
	ModeAuto     = "auto"
	ModePdftoppm = "pdftoppm"
	ModeEmbedded = "embedded"
)

// DefaultDPI is the render resolution used when none is configured
const DefaultDPI = 300

var (
	// ErrUnreadableDocument is returned when the input is not a PDF that can be opened
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrNoPageImages is returned when a PDF yields no page images at all
	ErrNoPageImages = errors.New("no page images in document")
)

// Rasterizer renders every page of a PDF, in page order
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// PageCount validates the document and returns its number of pages.
// Any parse or validation failure is reported as ErrUnreadableDocument.
func PageCount(pdf []byte) (n int, err error) {
	if len(pdf) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrUnreadableDocument)
	}

	// pdfcpu panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), relaxedConfig())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if pctx.PageCount == 0 {
		return 0, fmt.Errorf("%w: document has no pages", ErrUnreadableDocument)
	}
	return pctx.PageCount, nil
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// New builds the rasterizer selected by cfg.
// In auto mode pdftoppm is used when it is on PATH, otherwise the
// embedded-image extractor.
func New(cfg models.PDFConfig, logger *slog.Logger) (Rasterizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	switch cfg.Rasterizer {
	case ModePdftoppm:
		path, err := exec.LookPath("pdftoppm")
		if err != nil {
			return nil, fmt.Errorf("pdftoppm rasterizer: %w", err)
		}
		return NewPoppler(path, dpi, logger), nil
	case ModeEmbedded:
		return NewEmbedded(logger), nil
	case ModeAuto, "":
		if path, err := exec.LookPath("pdftoppm"); err == nil {
			return NewPoppler(path, dpi, logger), nil
		}
		logger.Warn("pdftoppm not found, falling back to embedded page images")
		return NewEmbedded(logger), nil
	default:
		return nil, fmt.Errorf("unknown rasterizer %q (use auto, pdftoppm or embedded)", cfg.Rasterizer)
	}
}

// PdftoppmAvailable reports whether the poppler renderer is installed
func PdftoppmAvailable() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}
