package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"

	// Decoders for embedded page images
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Embedded recovers page images from scanned PDFs without an external renderer.
// Scanners store each page as one full-page image; for every page the largest
// embedded image is taken as the page. Pages without images are skipped.
type Embedded struct {
	logger *slog.Logger
}

// NewEmbedded creates the pure-Go rasterizer
func NewEmbedded(logger *slog.Logger) *Embedded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedded{logger: logger.With("component", "rasterizer", "backend", "embedded")}
}

// Rasterize extracts one image per page, in page order
func (e *Embedded) Rasterize(ctx context.Context, pdf []byte) (images []image.Image, err error) {
	pages, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			images, err = nil, fmt.Errorf("%w: extract images: %v", ErrUnreadableDocument, r)
		}
	}()

	perPage, err := api.ExtractImagesRaw(bytes.NewReader(pdf), nil, relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: extract images: %v", ErrUnreadableDocument, err)
	}

	for i, imgs := range perPage {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, ok := largestImage(imgs)
		if !ok {
			e.logger.Debug("page has no embedded image", "page", i+1)
			continue
		}
		img, format, err := image.Decode(candidate.Reader)
		if err != nil {
			e.logger.Warn("could not decode embedded image",
				"page", candidate.PageNr, "type", candidate.FileType, "error", err)
			continue
		}
		e.logger.Debug("page image extracted", "page", candidate.PageNr, "format", format,
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		images = append(images, img)
	}

	if len(images) == 0 {
		return nil, ErrNoPageImages
	}
	e.logger.Debug("document rasterized", "pages", pages, "images", len(images))
	return images, nil
}

// largestImage picks the image with the most pixels, ties broken by object number
func largestImage(imgs map[int]model.Image) (model.Image, bool) {
	if len(imgs) == 0 {
		return model.Image{}, false
	}
	keys := make([]int, 0, len(imgs))
	for k := range imgs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	best := imgs[keys[0]]
	for _, k := range keys[1:] {
		img := imgs[k]
		if img.Width*img.Height > best.Width*best.Height {
			best = img
		}
	}
	return best, true
}
