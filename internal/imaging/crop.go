package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// PadRect grows r by padX on the left and right and padY on the top and
// bottom, then clamps the result to bounds.
//
// The result may be empty when r lies entirely outside bounds.
func PadRect(r image.Rectangle, padX, padY int, bounds image.Rectangle) image.Rectangle {
	padded := image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY)
	return padded.Intersect(bounds)
}

// Crop extracts r from img. The returned image has its origin at (0,0).
//
// Returns an error when r does not overlap the image.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Crop(img, clipped), nil
}

// TopSection returns the top fraction of img, at least one row tall.
func TopSection(img image.Image, fraction float64) image.Image {
	b := img.Bounds()
	h := int(float64(b.Dy()) * fraction)
	if h < 1 {
		h = 1
	}
	if h > b.Dy() {
		h = b.Dy()
	}
	return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+h))
}

// Upscale enlarges img by an integer factor using Lanczos resampling.
// A factor of 1 or less returns img unchanged.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.Lanczos)
}

// Save writes img to path, creating parent directories. The format follows
// the file extension.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
