package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"slices"

	// Decoders for NormalizeBytes
	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// ContrastFactor is the multiplicative contrast boost applied around the mean gray level
const ContrastFactor = 2.0

// ErrUnreadableImage is returned when a page image is nil, empty or cannot be decoded
var ErrUnreadableImage = errors.New("unreadable image")

// sharpenKernel is the classic 3x3 sharpen filter; weights sum to 16.
// It is applied to interior pixels only; the 1-pixel border is kept as is.
var sharpenKernel = [9]float64{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// Preprocessor applies the fixed enhancement chain that improves OCR signal
// on scanned mark-sheets: grayscale -> contrast -> median -> sharpen.
// The order is fixed; changing it changes recognition results.
type Preprocessor struct {
	logger *slog.Logger
}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{
		logger: logger.With("component", "preprocessor"),
	}
}

// Normalize converts a page image into the single-channel pixel array handed to the OCR oracle
func (p *Preprocessor) Normalize(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrUnreadableImage
	}

	// Grayscale (ITU-R 601-2 luma)
	gray := toGray(imaging.Grayscale(img))

	// Contrast boost around the mean level
	contrasted := adjustContrast(gray, ContrastFactor)

	// Remove salt-and-pepper noise while keeping edges
	denoised := medianFilter3x3(contrasted)

	// Sharpen text edges
	sharpened := sharpen(denoised)

	p.logger.Debug("page normalized",
		"width", sharpened.Bounds().Dx(),
		"height", sharpened.Bounds().Dy(),
	)
	return sharpened, nil
}

// NormalizeBytes decodes an encoded image (PNG, JPEG, GIF, TIFF), normalizes it
// and returns the result encoded as PNG
func (p *Preprocessor) NormalizeBytes(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	normalized, err := p.Normalize(img)
	if err != nil {
		return nil, err
	}
	return EncodePNG(normalized)
}

// SaveProcessedImage saves a normalized page to file (for debugging)
func (p *Preprocessor) SaveProcessedImage(img *image.Gray, outputPath string) error {
	if err := imaging.Save(img, outputPath); err != nil {
		return fmt.Errorf("save processed image: %w", err)
	}
	p.logger.Debug("saved processed image", "path", outputPath)
	return nil
}

// EncodePNG encodes a normalized page for oracles that consume encoded images
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// sharpen convolves src with sharpenKernel and restores the outer rows and
// columns from src, since imaging replicates edge pixels into the kernel
func sharpen(src *image.Gray) *image.Gray {
	dst := toGray(imaging.Convolve3x3(src, sharpenKernel, &imaging.ConvolveOptions{Normalize: true}))
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		if y == 0 || y == h-1 {
			copy(dstRow, srcRow)
			continue
		}
		dstRow[0] = srcRow[0]
		dstRow[w-1] = srcRow[w-1]
	}
	return dst
}

// toGray copies the red channel of an already-gray NRGBA image into a Gray image
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x := range dstRow {
			dstRow[x] = srcRow[x*4]
		}
	}
	return dst
}

// adjustContrast blends the image with a flat image of its rounded mean level:
// out = mean + factor*(in - mean)
func adjustContrast(src *image.Gray, factor float64) *image.Gray {
	var sum float64
	for _, v := range src.Pix {
		sum += float64(v)
	}
	mean := math.Floor(sum/float64(len(src.Pix)) + 0.5)

	var lut [256]uint8
	for i := range lut {
		lut[i] = clampUint8(mean + factor*(float64(i)-mean))
	}

	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}

// medianFilter3x3 replaces each pixel with the median of its 3x3 neighborhood,
// replicating border pixels
func medianFilter3x3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	window := make([]uint8, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					window = append(window, src.Pix[yy*src.Stride+xx])
				}
			}
			slices.Sort(window)
			dst.Pix[y*dst.Stride+x] = window[4]
		}
	}
	return dst
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
