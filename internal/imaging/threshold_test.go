package imaging

import (
	"image"
	"image/color"
	"testing"
)

func twoToneImage(width, height int, left, right uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := right
			if x < width/2 {
				v = left
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestOtsuLevel_Bimodal(t *testing.T) {
	gray := Grayscale(twoToneImage(20, 10, 50, 200))

	level := OtsuLevel(gray)
	if level < 50 || level >= 200 {
		t.Errorf("level %d should separate 50 from 200", level)
	}
}

func TestOtsuLevel_Empty(t *testing.T) {
	if got := OtsuLevel(image.NewGray(image.Rect(0, 0, 0, 0))); got != 128 {
		t.Errorf("empty image level = %d, want 128", got)
	}
}

func TestBinarize(t *testing.T) {
	img := twoToneImage(20, 10, 30, 220)

	bw := Binarize(img, false)
	if bw.GrayAt(2, 5).Y != 0 || bw.GrayAt(17, 5).Y != 255 {
		t.Errorf("expected dark left and white right, got %d and %d", bw.GrayAt(2, 5).Y, bw.GrayAt(17, 5).Y)
	}

	inv := Binarize(img, true)
	if inv.GrayAt(2, 5).Y != 255 || inv.GrayAt(17, 5).Y != 0 {
		t.Errorf("expected inverted polarity, got %d and %d", inv.GrayAt(2, 5).Y, inv.GrayAt(17, 5).Y)
	}
}

func TestBinarize_OnlyTwoValues(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(x*16 + y)
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}

	bw := Binarize(img, false)
	for _, p := range bw.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("binarized pixel value %d", p)
		}
	}
}

func TestBinarize_OffsetSubImage(t *testing.T) {
	src := twoToneImage(40, 10, 0, 255)
	sub := src.SubImage(image.Rect(10, 0, 30, 10))

	bw := Binarize(sub, false)
	if bw.Bounds().Min != (image.Point{}) || bw.Bounds().Dx() != 20 {
		t.Fatalf("unexpected bounds %v", bw.Bounds())
	}
	if bw.GrayAt(0, 0).Y != 0 || bw.GrayAt(19, 0).Y != 255 {
		t.Error("sub-image was not binarized in place of its own pixels")
	}
}
