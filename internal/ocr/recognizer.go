package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Recognizer turns page images into the document text blob.
// Each page is normalized, read by the oracle, and its fragments are joined
// with a single space; pages are joined in document order, each followed by
// a newline.
type Recognizer struct {
	preprocessor *Preprocessor
	oracle       Oracle
	workers      int
	debugDir     string
	logger       *slog.Logger
}

// RecognizerOption configures a Recognizer
type RecognizerOption func(*Recognizer)

// WithWorkers sets how many pages are normalized and recognized concurrently.
// Values below 2 keep recognition sequential.
func WithWorkers(n int) RecognizerOption {
	return func(r *Recognizer) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithDebugDir saves every normalized page as page-NNN.png under dir
func WithDebugDir(dir string) RecognizerOption {
	return func(r *Recognizer) { r.debugDir = dir }
}

// WithLogger sets the logger used by the recognizer and its preprocessor
func WithLogger(logger *slog.Logger) RecognizerOption {
	return func(r *Recognizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecognizer creates a recognizer around an already constructed oracle.
// The oracle is reused for every page and every document.
func NewRecognizer(oracle Oracle, opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		oracle:  oracle,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.preprocessor = NewPreprocessor(r.logger)
	r.logger = r.logger.With("component", "recognizer", "engine", oracle.Name())
	return r
}

// Oracle returns the engine the recognizer reads with
func (r *Recognizer) Oracle() Oracle {
	return r.oracle
}

// RecognizePage normalizes one page and returns its fragments joined with single spaces.
// A page with no fragments yields the empty string.
func (r *Recognizer) RecognizePage(ctx context.Context, img image.Image) (string, error) {
	return r.recognizePage(ctx, 0, img)
}

func (r *Recognizer) recognizePage(ctx context.Context, index int, img image.Image) (string, error) {
	normalized, err := r.preprocessor.Normalize(img)
	if err != nil {
		return "", err
	}

	if r.debugDir != "" {
		path := filepath.Join(r.debugDir, fmt.Sprintf("page-%03d.png", index+1))
		if err := r.preprocessor.SaveProcessedImage(normalized, path); err != nil {
			r.logger.Warn("could not save debug page", "path", path, "error", err)
		}
	}

	fragments, err := r.oracle.ReadText(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.oracle.Name(), err)
	}

	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	return strings.Join(texts, " "), nil
}

// RecognizeDocument recognizes every page and assembles the text blob in page order
func (r *Recognizer) RecognizeDocument(ctx context.Context, pages []image.Image) (string, error) {
	if r.debugDir != "" {
		if err := os.MkdirAll(r.debugDir, 0o755); err != nil {
			return "", fmt.Errorf("create debug dir: %w", err)
		}
	}

	texts := make([]string, len(pages))

	if r.workers <= 1 || len(pages) <= 1 {
		for i, page := range pages {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			text, err := r.recognizePage(ctx, i, page)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", i+1, err)
			}
			r.logger.Debug("page recognized", "page", i+1, "chars", len(text))
			texts[i] = text
		}
		return joinPages(texts), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, page := range pages {
		g.Go(func() error {
			text, err := r.recognizePage(gctx, i, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			r.logger.Debug("page recognized", "page", i+1, "chars", len(text))
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return joinPages(texts), nil
}

func joinPages(texts []string) string {
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}
