package ocr

import (
	"image"
	"strings"
	"unicode"
)

// Mode selects how an engine segments the page before recognition.
type Mode int

const (
	// ModeDigitLine treats the image as one line of text restricted to the
	// digits 0-9 (Tesseract PSM 7 with a digit whitelist).
	ModeDigitLine Mode = iota

	// ModeTextBlock treats the image as one uniform block of text with no
	// character restriction (Tesseract PSM 6).
	ModeTextBlock
)

func (m Mode) String() string {
	switch m {
	case ModeDigitLine:
		return "digit-line"
	case ModeTextBlock:
		return "text-block"
	default:
		return "unknown"
	}
}

// DigitWhitelist is the character set allowed in ModeDigitLine.
const DigitWhitelist = "0123456789"

// Engine recognizes text in an image.
//
// An Engine is owned by a single goroutine; implementations need not be safe
// for concurrent use. Close releases native resources and must be called once
// the engine is no longer needed.
type Engine interface {
	Recognize(img image.Image, mode Mode) (string, error)
	Close() error
}

// Factory creates an independent Engine. The batch orchestrator calls it once
// per worker.
type Factory func() (Engine, error)

// Info describes the OCR backend for startup diagnostics.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// StripSpace removes every whitespace character from text.
func StripSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// Lines splits recognized text into lines, trimming surrounding whitespace
// from each. Blank lines are kept as empty strings.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
