package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
	"github.com/marksheetIA/marksheet-ocr-service/internal/raster"
)

// NoDataMessage is shown when OCR produced no usable text
const NoDataMessage = "No data extracted. Please check the PDF format."

// ErrNoData is returned by Scan when the document yields no text at all
var ErrNoData = errors.New("no data extracted")

// TextRecognizer produces the text blob for a rasterized document
type TextRecognizer interface {
	RecognizeDocument(ctx context.Context, pages []image.Image) (string, error)
}

// Scanner runs the full pipeline: rasterize, recognize, extract, classify, bucketize
type Scanner struct {
	rasterizer raster.Rasterizer
	recognizer TextRecognizer
	extractor  *RecordExtractor
	logger     *slog.Logger
}

// NewScanner wires the pipeline stages together
func NewScanner(r raster.Rasterizer, rec TextRecognizer, extractor *RecordExtractor, logger *slog.Logger) *Scanner {
	if extractor == nil {
		extractor = NewRecordExtractor("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		rasterizer: r,
		recognizer: rec,
		extractor:  extractor,
		logger:     logger.With("component", "scanner"),
	}
}

// Scan processes one PDF. When no text is recognized the partial result is
// returned together with ErrNoData.
func (s *Scanner) Scan(ctx context.Context, pdf []byte) (*models.ScanResult, error) {
	start := time.Now()

	pages, err := s.rasterizer.Rasterize(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	s.logger.Info("document rasterized", "pages", len(pages))

	text, err := s.recognizer.RecognizeDocument(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	ocrDuration := time.Since(start)

	empty := &models.ScanResult{Text: text, Pages: len(pages), OCRDuration: ocrDuration}
	if empty.NoData() {
		s.logger.Warn("no text recognized", "pages", len(pages))
		return empty, ErrNoData
	}

	result := s.ProcessText(text)
	result.Pages = len(pages)
	result.OCRDuration = ocrDuration

	s.logger.Info("scan complete",
		"total", result.Summary.Total,
		"passed", result.Summary.Passed,
		"failed", result.Summary.Failed,
		"absent", result.Summary.Absent,
		"detained", result.Summary.Detained,
		"unknown", result.Summary.Unknown,
		"duration", time.Since(start),
	)
	return result, nil
}

// ProcessText runs extraction, classification and bucketing over an OCR text blob
func (s *Scanner) ProcessText(text string) *models.ScanResult {
	triples := s.extractor.Extract(text)
	records := ClassifyAll(triples)
	buckets := Bucketize(records)

	if dropped := len(triples) - len(records); dropped > 0 {
		s.logger.Debug("discarded incomplete records", "count", dropped)
	}

	return &models.ScanResult{
		Text:    text,
		Records: records,
		Buckets: buckets,
		Summary: Summarize(records, buckets),
	}
}
