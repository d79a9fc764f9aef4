package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Grayscale converts img to an 8-bit grayscale image with its origin at (0,0).
func Grayscale(img image.Image) *image.Gray {
	return toGray(imaging.Grayscale(img))
}

// OtsuLevel returns the threshold that maximizes the between-class variance of
// the gray histogram. Pixels strictly above the level form the foreground.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i := 0; i < 256; i++ {
		sum += float64(i) * float64(hist[i])
	}

	var sumB, maxVar float64
	var wB int
	level := uint8(128)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)

		variance := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if variance > maxVar {
			maxVar = variance
			level = uint8(t)
		}
	}
	return level
}

// Binarize converts img to grayscale and applies Otsu's threshold: pixels
// brighter than the level become white, the rest black. With invert set the
// polarity is swapped, so dark strokes on light paper come out white.
func Binarize(img image.Image, invert bool) *image.Gray {
	gray := Grayscale(img)
	level := OtsuLevel(gray)

	var bw *image.Gray
	if level == 255 {
		// nothing can be strictly brighter
		bw = image.NewGray(gray.Bounds())
	} else {
		// segment.Threshold keeps pixels >= its level
		bw = segment.Threshold(gray, level+1)
	}
	if invert {
		return toGray(imaging.Invert(bw))
	}
	return bw
}

// toGray copies img into a new *image.Gray based at (0,0).
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
