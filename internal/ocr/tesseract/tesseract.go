// Package tesseract implements ocr.Engine with Tesseract through gosseract.
//
// Tesseract must be installed with its language data:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-default tessdata directory can be given through Options.TessdataPrefix.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/red-numbers/internal/ocr"
)

// Options configures the Tesseract clients.
type Options struct {
	Language       string
	TessdataPrefix string
}

func (o Options) language() string {
	if o.Language == "" {
		return "eng"
	}
	return o.Language
}

// Engine holds one gosseract client per recognition mode so page
// segmentation and whitelist settings never have to be toggled between calls.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	digits *gosseract.Client
	text   *gosseract.Client
}

// NewEngine creates an Engine with both clients configured.
func NewEngine(opts Options) (*Engine, error) {
	digits, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	if err := digits.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		digits.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := digits.SetWhitelist(ocr.DigitWhitelist); err != nil {
		digits.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	text, err := newClient(opts)
	if err != nil {
		digits.Close()
		return nil, err
	}
	if err := text.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		digits.Close()
		text.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Engine{digits: digits, text: text}, nil
}

func newClient(opts Options) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(opts.language()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	return client, nil
}

// Factory returns an ocr.Factory producing Engines configured with opts.
func Factory(opts Options) ocr.Factory {
	return func() (ocr.Engine, error) {
		return NewEngine(opts)
	}
}

// Recognize implements ocr.Engine. The image is handed to Tesseract as PNG.
func (e *Engine) Recognize(img image.Image, mode ocr.Mode) (string, error) {
	var client *gosseract.Client
	switch mode {
	case ocr.ModeDigitLine:
		client = e.digits
	case ocr.ModeTextBlock:
		client = e.text
	default:
		return "", fmt.Errorf("unsupported OCR mode %v", mode)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Close releases both clients.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range []*gosseract.Client{e.digits, e.text} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Check verifies that Tesseract can be initialized with opts by recognizing a
// small blank image. It is meant to run once at startup.
func Check(opts Options) (ocr.Info, error) {
	info := ocr.Info{Backend: "gosseract", TessdataPath: opts.TessdataPrefix}

	client, err := newClient(opts)
	if err != nil {
		info.Error = err.Error()
		return info, err
	}
	defer client.Close()

	blank := image.NewGray(image.Rect(0, 0, 32, 16))
	for i := range blank.Pix {
		blank.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		info.Error = err.Error()
		return info, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		info.Error = err.Error()
		return info, fmt.Errorf("failed to set image: %w", err)
	}
	if _, err := client.Text(); err != nil {
		info.Error = err.Error()
		return info, fmt.Errorf("tesseract is not usable: %w", err)
	}

	info.Available = true
	info.Version = client.Version()
	return info, nil
}
