package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

const (
	maskOn  = 0xFF
	maskOff = 0x00
)

// Mask is a binary image: every pixel is either set (255) or clear (0).
// Its origin is always (0,0).
//
// Morphological operations return a new Mask and leave the receiver unchanged.
type Mask struct {
	Gray *image.Gray
}

// NewMask returns an empty w x h mask.
func NewMask(w, h int) *Mask {
	return &Mask{Gray: image.NewGray(image.Rect(0, 0, w, h))}
}

// MaskFromImage builds a mask from img, setting every pixel whose luminance is
// at least half scale. The result is re-based to (0,0).
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if g.GrayAt(x, y).Y >= 0x80 {
					m.Set(x-b.Min.X, y-b.Min.Y)
				}
			}
		}
		return m
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if (r+g+bl)/3 >= 0x8000 {
				m.Set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m
}

func (m *Mask) Width() int  { return m.Gray.Rect.Dx() }
func (m *Mask) Height() int { return m.Gray.Rect.Dy() }

// IsSet reports whether (x, y) is set. Coordinates outside the mask are clear.
func (m *Mask) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
		return false
	}
	return m.Gray.Pix[y*m.Gray.Stride+x] != maskOff
}

// Set marks (x, y), which must lie inside the mask.
func (m *Mask) Set(x, y int) {
	m.Gray.Pix[y*m.Gray.Stride+x] = maskOn
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, p := range m.Gray.Pix {
		if p != maskOff {
			n++
		}
	}
	return n
}

// Image exposes the mask as a grayscale image, e.g. for debug output.
func (m *Mask) Image() image.Image {
	return m.Gray
}

// Close performs a morphological closing (dilation then erosion) with a
// square kernel x kernel structuring element. Small gaps inside strokes are
// filled.
func (m *Mask) Close(kernel int) *Mask {
	r := float64(kernel / 2)
	if r <= 0 {
		return m.clone()
	}
	return MaskFromImage(effect.Erode(effect.Dilate(m.Gray, r), r))
}

// Open performs a morphological opening (erosion then dilation) with a
// square kernel x kernel structuring element. Isolated specks are removed.
func (m *Mask) Open(kernel int) *Mask {
	r := float64(kernel / 2)
	if r <= 0 {
		return m.clone()
	}
	return MaskFromImage(effect.Dilate(effect.Erode(m.Gray, r), r))
}

// DilateRect dilates with a w x h rectangle anchored at its center, merging
// characters on the same text line into one blob when w is wide and h short.
//
// bild only offers square kernels, so the rectangle is applied as two
// separable sliding-window passes.
func (m *Mask) DilateRect(w, h int) *Mask {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	width, height := m.Width(), m.Height()

	horiz := NewMask(width, height)
	counts := make([]int, width+1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			counts[x+1] = counts[x]
			if m.IsSet(x, y) {
				counts[x+1]++
			}
		}
		for x := 0; x < width; x++ {
			lo, hi := windowBounds(x, w, width)
			if counts[hi]-counts[lo] > 0 {
				horiz.Set(x, y)
			}
		}
	}

	out := NewMask(width, height)
	counts = make([]int, height+1)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			counts[y+1] = counts[y]
			if horiz.IsSet(x, y) {
				counts[y+1]++
			}
		}
		for y := 0; y < height; y++ {
			lo, hi := windowBounds(y, h, height)
			if counts[hi]-counts[lo] > 0 {
				out.Set(x, y)
			}
		}
	}
	return out
}

// windowBounds returns the half-open prefix-sum range [lo, hi) covered by a
// window of the given size centered on i, clamped to [0, limit].
func windowBounds(i, size, limit int) (lo, hi int) {
	anchor := size / 2
	lo = i - anchor
	hi = i - anchor + size
	if lo < 0 {
		lo = 0
	}
	if hi > limit {
		hi = limit
	}
	return lo, hi
}

func (m *Mask) clone() *Mask {
	c := NewMask(m.Width(), m.Height())
	copy(c.Gray.Pix, m.Gray.Pix)
	return c
}
