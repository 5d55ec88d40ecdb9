package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
)

func pngBytes(t *testing.T, w, h int, level uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = level
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// scannedPDF builds a PDF with one full-page image per page
func scannedPDF(t *testing.T, pages ...[]byte) []byte {
	t.Helper()
	readers := make([]io.Reader, len(pages))
	for i, p := range pages {
		readers[i] = bytes.NewReader(p)
	}
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		t.Skipf("could not build PDF fixture: %v", err)
	}
	return out.Bytes()
}

func TestPageCountRejectsGarbage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not a pdf")},
		{"truncated header", []byte("%PDF-1.7\n1 0 obj\n<<")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := PageCount(tt.data); !errors.Is(err, ErrUnreadableDocument) {
				t.Errorf("PageCount error = %v, want ErrUnreadableDocument", err)
			}
		})
	}
}

func TestRasterizersRejectGarbage(t *testing.T) {
	t.Parallel()

	rasterizers := map[string]Rasterizer{
		"embedded": NewEmbedded(nil),
		"poppler":  NewPoppler("pdftoppm", 0, nil),
	}
	for name, r := range rasterizers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Rasterize(context.Background(), []byte("not a pdf"))
			if !errors.Is(err, ErrUnreadableDocument) {
				t.Errorf("Rasterize error = %v, want ErrUnreadableDocument", err)
			}
		})
	}
}

func TestEmbeddedRasterizePageOrder(t *testing.T) {
	t.Parallel()

	pdf := scannedPDF(t, pngBytes(t, 40, 60, 10), pngBytes(t, 40, 60, 200))

	n, err := PageCount(pdf)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("PageCount = %d, want 2", n)
	}

	images, err := NewEmbedded(nil).Rasterize(context.Background(), pdf)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}

	first := color.GrayModel.Convert(images[0].At(0, 0)).(color.Gray).Y
	second := color.GrayModel.Convert(images[1].At(0, 0)).(color.Gray).Y
	if first >= second {
		t.Errorf("pages out of order: first level %d, second level %d", first, second)
	}
}

func TestPopplerRasterize(t *testing.T) {
	t.Parallel()

	if !PdftoppmAvailable() {
		t.Skip("pdftoppm not installed")
	}
	pdf := scannedPDF(t, pngBytes(t, 40, 60, 0), pngBytes(t, 40, 60, 0), pngBytes(t, 40, 60, 0))

	r, err := New(models.PDFConfig{Rasterizer: ModePdftoppm, DPI: 72}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	images, err := r.Rasterize(context.Background(), pdf)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if len(images) != 3 {
		t.Errorf("got %d pages, want 3", len(images))
	}
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	if _, err := New(models.PDFConfig{Rasterizer: "ghostscript"}, nil); err == nil {
		t.Error("expected error for unknown rasterizer")
	}

	r, err := New(models.PDFConfig{Rasterizer: ModeEmbedded}, nil)
	if err != nil {
		t.Fatalf("New(embedded) failed: %v", err)
	}
	if _, ok := r.(*Embedded); !ok {
		t.Errorf("New(embedded) = %T, want *Embedded", r)
	}

	r, err = New(models.PDFConfig{Rasterizer: ModeAuto}, nil)
	if err != nil {
		t.Fatalf("New(auto) failed: %v", err)
	}
	_, isPoppler := r.(*Poppler)
	if isPoppler != PdftoppmAvailable() {
		t.Errorf("New(auto) = %T with pdftoppm available = %v", r, PdftoppmAvailable())
	}
}

func TestRenderedPagesNumericOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"page-10.png", "page-02.png", "page-1.png", "input.pdf", "page-x.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := renderedPages(dir)
	if err != nil {
		t.Fatalf("renderedPages failed: %v", err)
	}
	want := []string{"page-1.png", "page-02.png", "page-10.png"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if filepath.Base(got[i]) != want[i] {
			t.Errorf("page %d = %s, want %s", i, filepath.Base(got[i]), want[i])
		}
	}
}

func TestLargestImage(t *testing.T) {
	t.Parallel()

	if _, ok := largestImage(nil); ok {
		t.Error("largestImage(nil) reported an image")
	}

	imgs := map[int]model.Image{
		7: {ObjNr: 7, Width: 10, Height: 10},
		3: {ObjNr: 3, Width: 2480, Height: 3508},
		9: {ObjNr: 9, Width: 2480, Height: 3508},
	}
	best, ok := largestImage(imgs)
	if !ok || best.ObjNr != 3 {
		t.Errorf("largestImage = %d, want object 3", best.ObjNr)
	}
}
