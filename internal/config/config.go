// Package config holds the detection parameters for a batch run.
//
// A Config is an immutable value: components receive it by value and never
// modify it. Callers that need different thresholds for one run (for example a
// saturation/brightness preset chosen by the user) derive a new Config with
// the With* methods instead of mutating shared defaults.
package config

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

// HSV is a color in the OpenCV HSV scale: H in 0..180, S and V in 0..255.
type HSV struct {
	H int
	S int
	V int
}

// HSVRange is an inclusive range of HSV values.
type HSVRange struct {
	Lower HSV
	Upper HSV
}

// Contains reports whether (h, s, v) lies inside the range, bounds included.
func (r HSVRange) Contains(h, s, v int) bool {
	return h >= r.Lower.H && h <= r.Upper.H &&
		s >= r.Lower.S && s <= r.Upper.S &&
		v >= r.Lower.V && v <= r.Upper.V
}

// Color configures the red ink segmenter. Red wraps around hue 0, hence two ranges.
type Color struct {
	Range1     HSVRange
	Range2     HSVRange
	KernelSize int // square structuring element for closing/opening
}

// Geometry bounds the connected components accepted as digit groups.
type Geometry struct {
	MinArea   int
	MinWidth  int
	MinHeight int
	MinRatio  float64 // width / height
	MaxRatio  float64
}

// Numbers configures ROI extraction and digit validation.
type Numbers struct {
	PaddingX  int
	PaddingY  int
	MinDigits int
	MaxDigits int
}

// Pattern is one rule of the motor-code cascade.
type Pattern struct {
	Name string
	Expr string
}

// Motor configures the engine-code search in the top section of a sheet.
type Motor struct {
	TopFraction  float64
	MinWidth     int
	MaxWidth     int // 0 means "narrower than the section"
	MinHeight    int
	MaxHeight    int
	DilateWidth  int
	DilateHeight int
	Padding      int
	Upscale      int
	MinLength    int
	Patterns     []Pattern // most specific first
	Terminators  []string  // case-insensitive
}

// OCR configures the engine boundary.
type OCR struct {
	Language       string
	TessdataPrefix string
}

// Config is the complete, immutable configuration of a run.
type Config struct {
	Color    Color
	Geometry Geometry
	Numbers  Numbers
	Motor    Motor
	OCR      OCR

	Extensions    []string
	Workers       int
	ProgressEvery int
	Debug         bool
}

// MaxDigitLimit is the largest MaxDigits the digit pattern can express;
// regexp repeat counts stop at 1000.
const MaxDigitLimit = 1000

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Color: Color{
			Range1:     HSVRange{Lower: HSV{0, 150, 150}, Upper: HSV{10, 255, 255}},
			Range2:     HSVRange{Lower: HSV{170, 150, 150}, Upper: HSV{180, 255, 255}},
			KernelSize: 3,
		},
		Geometry: Geometry{
			MinArea:   180,
			MinWidth:  18,
			MinHeight: 12,
			MinRatio:  0.6,
			MaxRatio:  6.5,
		},
		Numbers: Numbers{
			PaddingX:  19,
			PaddingY:  12,
			MinDigits: 3,
			MaxDigits: 5,
		},
		Motor: Motor{
			TopFraction:  0.90,
			MinWidth:     50,
			MinHeight:    10,
			MaxHeight:    100,
			DilateWidth:  25,
			DilateHeight: 3,
			Padding:      5,
			Upscale:      2,
			MinLength:    8,
			Patterns: []Pattern{
				{Name: "hyphen2", Expr: `\d+\.\d+/[A-Z0-9]+-[A-Z0-9]+-[A-Z0-9]+`}, // 1.6/EP6FADTXHPD-5GQ-5G06
				{Name: "hyphen1", Expr: `\d+\.\d+/[A-Z0-9]+-[A-Z0-9]+`},           // 1.6/EP6FADTXHPD-5GQ
				{Name: "medium", Expr: `\d+\.\d+/[A-Z][0-9]+[A-Z]+[0-9]*[A-Z]?`},  // 1.5/B38A15P
				{Name: "simple", Expr: `\d+\.\d+/[A-Z0-9]+`},
			},
			Terminators: []string{"KW:", "CV:", "HP:", "VIN"},
		},
		OCR: OCR{
			Language: "eng",
		},
		Extensions:    []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif"},
		Workers:       runtime.NumCPU(),
		ProgressEvery: 2,
	}
}

// Validate checks that every parameter is usable.
func (c Config) Validate() error {
	if err := c.Color.Range1.validate("range1"); err != nil {
		return err
	}
	if err := c.Color.Range2.validate("range2"); err != nil {
		return err
	}
	if c.Color.KernelSize < 1 || c.Color.KernelSize%2 == 0 {
		return fmt.Errorf("kernel size must be a positive odd number, got %d", c.Color.KernelSize)
	}

	g := c.Geometry
	if g.MinArea < 0 || g.MinWidth < 0 || g.MinHeight < 0 {
		return fmt.Errorf("geometry minimums must be non-negative")
	}
	if g.MinRatio <= 0 || g.MaxRatio < g.MinRatio {
		return fmt.Errorf("aspect ratio band [%g, %g] is invalid", g.MinRatio, g.MaxRatio)
	}

	n := c.Numbers
	if n.PaddingX < 0 || n.PaddingY < 0 {
		return fmt.Errorf("padding must be non-negative")
	}
	if n.MinDigits < 1 || n.MaxDigits < n.MinDigits {
		return fmt.Errorf("digit range [%d, %d] is invalid", n.MinDigits, n.MaxDigits)
	}
	if n.MaxDigits > MaxDigitLimit {
		return fmt.Errorf("max digits %d exceeds %d", n.MaxDigits, MaxDigitLimit)
	}

	m := c.Motor
	if m.TopFraction <= 0 || m.TopFraction > 1 {
		return fmt.Errorf("motor top fraction must be in (0, 1], got %g", m.TopFraction)
	}
	if m.MinWidth < 0 || m.MinHeight < 0 || m.MaxHeight < m.MinHeight {
		return fmt.Errorf("motor box bounds are invalid")
	}
	if m.MaxWidth != 0 && m.MaxWidth < m.MinWidth {
		return fmt.Errorf("motor max width %d is below min width %d", m.MaxWidth, m.MinWidth)
	}
	if m.DilateWidth < 1 || m.DilateHeight < 1 {
		return fmt.Errorf("motor dilation element must be at least 1x1")
	}
	if m.Upscale < 1 {
		return fmt.Errorf("motor upscale must be at least 1, got %d", m.Upscale)
	}
	if len(m.Patterns) == 0 {
		return fmt.Errorf("at least one motor pattern is required")
	}
	for _, p := range m.Patterns {
		if _, err := regexp.Compile(p.Expr); err != nil {
			return fmt.Errorf("motor pattern %q: %w", p.Name, err)
		}
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one image extension is required")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

func (r HSVRange) validate(name string) error {
	for _, v := range []HSV{r.Lower, r.Upper} {
		if v.H < 0 || v.H > 180 || v.S < 0 || v.S > 255 || v.V < 0 || v.V > 255 {
			return fmt.Errorf("%s: value %+v outside HSV scale", name, v)
		}
	}
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return fmt.Errorf("%s: lower bound exceeds upper bound", name)
	}
	return nil
}

// WithSaturationValue returns a copy whose two red ranges use s and v as
// their lower saturation and brightness bounds.
func (c Config) WithSaturationValue(s, v int) Config {
	c.Color.Range1.Lower.S, c.Color.Range1.Lower.V = s, v
	c.Color.Range2.Lower.S, c.Color.Range2.Lower.V = s, v
	return c
}

// WithWorkers returns a copy using n workers.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithDebug returns a copy with debug images enabled or disabled.
func (c Config) WithDebug(enabled bool) Config {
	c.Debug = enabled
	return c
}

// Clone returns a deep copy; slices are not shared with c.
func (c Config) Clone() Config {
	c.Motor.Patterns = append([]Pattern(nil), c.Motor.Patterns...)
	c.Motor.Terminators = append([]string(nil), c.Motor.Terminators...)
	c.Extensions = append([]string(nil), c.Extensions...)
	return c
}
