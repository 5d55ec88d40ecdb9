// Package tesseract implements the OCR oracle on top of Tesseract via gosseract.
//
// It requires the Tesseract library to be installed. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/marksheetIA/marksheet-ocr-service/internal/ocr"
)

// Oracle reads text with a single long-lived Tesseract client.
// The client is not safe for concurrent use, so calls are serialized.
type Oracle struct {
	mu       sync.Mutex
	client   *gosseract.Client
	language string
}

// New creates a Tesseract oracle. The oracle should be closed when no longer needed.
func New(language string) (*Oracle, error) {
	if language == "" {
		language = "eng" // Default to English
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set language %q: %w", language, err)
	}
	return &Oracle{
		client:   client,
		language: language,
	}, nil
}

// Name implements ocr.Oracle
func (o *Oracle) Name() string { return "tesseract" }

// ReadText returns one fragment per recognized word, in Tesseract's reading order
func (o *Oracle) ReadText(ctx context.Context, img *image.Gray) ([]ocr.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := o.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	fragments := make([]ocr.Fragment, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		fragments = append(fragments, ocr.Fragment{
			Text:       word,
			Confidence: b.Confidence / 100.0,
			Box: ocr.BoundingBox{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
		})
	}
	return fragments, nil
}

// Close releases the Tesseract client
func (o *Oracle) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client != nil {
		err := o.client.Close()
		o.client = nil
		return err
	}
	return nil
}

// Version reports the linked Tesseract version
func Version() string {
	return gosseract.Version()
}
