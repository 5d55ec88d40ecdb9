// Package ai reads mark-sheet pages with vision language models.
package ai

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/marksheetIA/marksheet-ocr-service/internal/ocr"
)

// transcriptionPrompt asks for a literal transcription; the record grammar
// runs on the result exactly as it does on Tesseract output
const transcriptionPrompt = `You are an OCR engine. Transcribe every line of text in this scanned university mark-sheet exactly as printed.

Rules:
- One printed row per output line, left to right, top to bottom.
- Keep enrollment numbers, names, marks and status codes (A, Absent, None, abs, D) exactly as they appear.
- Do not correct spelling, translate, summarize or add commentary.
- Do not format as a table or Markdown.
- If the page has no text, answer with nothing.`

// VisionOracle adapts a vision model provider to the OCR oracle interface.
// Each non-blank line of the model's transcription becomes one fragment.
type VisionOracle struct {
	provider Provider
	logger   *slog.Logger
}

// NewVisionOracle wraps provider as an ocr.Oracle
func NewVisionOracle(provider Provider, logger *slog.Logger) *VisionOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionOracle{
		provider: provider,
		logger:   logger.With("component", "vision", "provider", provider.Name()),
	}
}

// Name implements ocr.Oracle
func (o *VisionOracle) Name() string { return o.provider.Name() }

// ReadText implements ocr.Oracle
func (o *VisionOracle) ReadText(ctx context.Context, img *image.Gray) ([]ocr.Fragment, error) {
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := o.provider.Transcribe(ctx, data, transcriptionPrompt)
	if errors.Is(err, ErrEmptyResponse) {
		// blank page
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cleaned := cleanTranscription(response)
	o.logger.Debug("page transcribed", "chars", len(cleaned), "duration", time.Since(start))
	return ocr.FragmentsFromLines(cleaned), nil
}

// cleanTranscription removes markdown code fences models wrap answers in
func cleanTranscription(response string) string {
	cleaned := strings.TrimSpace(response)
	backticks := string([]byte{96, 96, 96})
	lines := strings.Split(cleaned, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), backticks) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
