package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
)

// DefaultBoxColor is the outline color used for annotated debug images.
const DefaultBoxColor = "#00FF00"

// DrawBoxes returns a copy of img with every rectangle outlined in the given
// hex color and, when numbered is set, labelled with its 1-based index.
// An unparseable color falls back to DefaultBoxColor.
func DrawBoxes(img image.Image, boxes []image.Rectangle, colorHex string, numbered bool) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	boxColor, err := parseHexColor(colorHex)
	if err != nil {
		boxColor, _ = parseHexColor(DefaultBoxColor)
	}
	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	for i, r := range boxes {
		r = r.Sub(b.Min)
		for x := r.Min.X; x < r.Max.X; x++ {
			setClipped(out, x, r.Min.Y, boxColor)
			setClipped(out, x, r.Max.Y-1, boxColor)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setClipped(out, r.Min.X, y, boxColor)
			setClipped(out, r.Max.X-1, y, boxColor)
		}
		if numbered {
			drawLabel(out, r.Min.X+2, r.Min.Y+2, strconv.Itoa(i+1), labelColor, bgColor)
		}
	}
	return out
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r, g, b = uint8(val>>16), uint8(val>>8), uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r, g, b, a = uint8(val>>24), uint8(val>>16), uint8(val>>8), uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// digitGlyphs is a 3x5 bitmap font for region indices.
var digitGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a filled background with its top-left corner at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range digitGlyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
