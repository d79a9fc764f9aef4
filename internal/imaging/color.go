package imaging

import (
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSVMatcher reports whether an HSV triple in the OpenCV scale belongs to the
// color of interest.
type HSVMatcher func(h, s, v int) bool

// ToHSV converts c to HSV in the OpenCV 8-bit scale:
//   - H: 0-180 (degrees halved)
//   - S: 0-255
//   - V: 0-255
//
// ok is false for fully transparent colors, which have no meaningful hue.
func ToHSV(c color.Color) (h, s, v int, ok bool) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0, 0, 0, false
	}
	hf, sf, vf := cf.Hsv()
	return int(math.Round(hf / 2)), int(math.Round(sf * 255)), int(math.Round(vf * 255)), true
}

// HSVMask builds a mask that is set wherever match accepts the pixel's HSV
// value. The mask has the same size as img and its origin at (0,0).
func HSVMask(img image.Image, match HSVMatcher) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			h, s, v, ok := ToHSV(img.At(x, y))
			if ok && match(h, s, v) {
				m.Set(x-b.Min.X, y-b.Min.Y)
			}
		}
	}
	return m
}
