package ocr

import (
	"context"
	"image"
	"strings"
)

// Oracle is the text-recognition engine behind the recognizer.
// It receives the normalized pixel array of one page and returns the
// recognized fragments in reading order (left-to-right, top-to-bottom).
// The recognizer never reorders fragments; ordering is the oracle's job.
type Oracle interface {
	Name() string
	ReadText(ctx context.Context, img *image.Gray) ([]Fragment, error)
}

// Fragment is one piece of recognized text with its position
type Fragment struct {
	Text       string
	Confidence float64
	Box        BoundingBox
}

// BoundingBox represents the location of text in the image
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FragmentsFromLines turns a plain transcription into one fragment per
// non-blank line. Oracles that only return text (vision models) use it.
func FragmentsFromLines(text string) []Fragment {
	var fragments []Fragment
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fragments = append(fragments, Fragment{Text: line})
	}
	return fragments
}

// OracleFunc adapts a function to the Oracle interface
type OracleFunc func(ctx context.Context, img *image.Gray) ([]Fragment, error)

// Name implements Oracle
func (f OracleFunc) Name() string { return "func" }

// ReadText implements Oracle
func (f OracleFunc) ReadText(ctx context.Context, img *image.Gray) ([]Fragment, error) {
	return f(ctx, img)
}
