package detection

import (
	"fmt"
	"image"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/imaging"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/ocr"
)

// NumberExtractor reads the digits inside candidate regions.
type NumberExtractor struct {
	cfg    config.Numbers
	engine ocr.Engine
	valid  *regexp.Regexp
	log    *logging.Logger
}

// NewNumberExtractor returns an extractor that recognizes text with engine.
func NewNumberExtractor(cfg config.Numbers, engine ocr.Engine, log *logging.Logger) (*NumberExtractor, error) {
	if log == nil {
		log = logging.Discard()
	}
	valid, err := digitPattern(cfg.MinDigits, cfg.MaxDigits)
	if err != nil {
		return nil, err
	}
	return &NumberExtractor{
		cfg:    cfg,
		engine: engine,
		valid:  valid,
		log:    log,
	}, nil
}

func digitPattern(lo, hi int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(fmt.Sprintf(`^\d{%d,%d}$`, lo, hi))
	if err != nil {
		return nil, fmt.Errorf("digit range [%d, %d]: %w", lo, hi, err)
	}
	return re, nil
}

// Valid reports whether text is entirely made of an accepted number of digits.
func (e *NumberExtractor) Valid(text string) bool {
	return e.valid.MatchString(text)
}

// Extract reads the number inside r. The padded region is binarized with
// Otsu's threshold and recognized as a single digit line; when that does not
// yield a valid number the polarity is inverted and recognition retried once.
//
// OCR errors count as "nothing recognized" for the attempt that hit them.
func (e *NumberExtractor) Extract(img image.Image, r Region, index int, stage StageFunc) (string, bool) {
	rect := imaging.PadRect(r.Rect, e.cfg.PaddingX, e.cfg.PaddingY, img.Bounds())
	roi, err := imaging.Crop(img, rect)
	if err != nil {
		e.log.Debug("skipping region", "rect", r.Rect, "error", err)
		return "", false
	}
	stage.save(fmt.Sprintf("roi_%d", index), roi)

	for attempt, invert := range []bool{false, true} {
		bw := imaging.Binarize(roi, invert)
		if !invert {
			stage.save(fmt.Sprintf("roi_%d_thresh", index), bw)
		}

		text, err := e.engine.Recognize(bw, ocr.ModeDigitLine)
		if err != nil {
			e.log.Debug("digit OCR failed", "roi", index, "attempt", attempt+1, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if e.Valid(text) {
			return text, true
		}
		e.log.Debug("rejected digit text", "roi", index, "attempt", attempt+1, "text", text)
	}
	return "", false
}

// ExtractAll reads every region and returns the distinct numbers found,
// ordered by numeric value.
func (e *NumberExtractor) ExtractAll(img image.Image, regions []Region, stage StageFunc) []string {
	seen := make(map[string]bool)
	numbers := make([]string, 0, len(regions))
	for i, r := range regions {
		n, ok := e.Extract(img, r, i+1, stage)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
	}
	SortNumbers(numbers)
	return numbers
}

// SortNumbers orders digit strings by numeric value, breaking ties between
// equal values such as "0123" and "123" lexicographically.
func SortNumbers(numbers []string) {
	sort.SliceStable(numbers, func(i, j int) bool {
		a, errA := strconv.Atoi(numbers[i])
		b, errB := strconv.Atoi(numbers[j])
		if errA != nil || errB != nil || a == b {
			return numbers[i] < numbers[j]
		}
		return a < b
	})
}
