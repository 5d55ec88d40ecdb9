package raster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Poppler renders pages with the pdftoppm command line tool
type Poppler struct {
	path   string
	dpi    int
	logger *slog.Logger
}

// NewPoppler creates a rasterizer that runs the pdftoppm binary at path
func NewPoppler(path string, dpi int, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Poppler{
		path:   path,
		dpi:    dpi,
		logger: logger.With("component", "rasterizer", "backend", "pdftoppm"),
	}
}

// Rasterize renders every page to PNG in a temporary directory and decodes them in page order
func (p *Poppler) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	pages, err := PageCount(pdf)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "marksheet-raster-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, p.path, "-png", "-r", strconv.Itoa(p.dpi), input, prefix)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrUnreadableDocument, err, strings.TrimSpace(string(output)))
	}

	files, err := renderedPages(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoPageImages
	}

	images := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodePNG(f)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	p.logger.Debug("document rasterized", "pages", pages, "images", len(images), "dpi", p.dpi)
	return images, nil
}

// renderedPages lists page-N.png files in numeric page order.
// pdftoppm zero-pads N to the width of the page count.
func renderedPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read render dir: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		if n, ok := pageNumber(e.Name()); ok {
			pages = append(pages, page{num: n, path: filepath.Join(dir, e.Name())})
		}
	}
	slices.SortFunc(pages, func(a, b page) int { return a.num - b.num })

	paths := make([]string, len(pages))
	for i, pg := range pages {
		paths[i] = pg.path
	}
	return paths, nil
}

func pageNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
