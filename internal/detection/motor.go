package detection

import (
	"fmt"
	"image"
	"regexp"
	"slices"
	"strings"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/imaging"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/ocr"
)

// Rule is one entry of the motor-code cascade.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

// CompileRules compiles patterns into a cascade, keeping their order.
func CompileRules(patterns []config.Pattern) ([]Rule, error) {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("motor pattern %q: %w", p.Name, err)
		}
		rules = append(rules, Rule{Name: p.Name, re: re})
	}
	return rules, nil
}

// MatchCode evaluates the rules in order and returns the substring matched by
// the first rule that matches anywhere in candidate, with the rule's name.
func MatchCode(rules []Rule, candidate string) (code, rule string, ok bool) {
	for _, r := range rules {
		if m := r.re.FindString(candidate); m != "" {
			return m, r.Name, true
		}
	}
	return "", "", false
}

// ReconstructCode joins the lines of a recognized text block into one
// upper-cased candidate string.
//
// Leading blank lines are skipped. Accumulation stops at the first blank line
// after that, or at the first line containing a terminator (case-insensitive);
// the terminating line and everything after it are dropped. Spaces inside a
// line are removed.
func ReconstructCode(lines, terminators []string) string {
	upperTerms := make([]string, 0, len(terminators))
	for _, t := range terminators {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			upperTerms = append(upperTerms, t)
		}
	}

	var b strings.Builder
	started := false
	for _, line := range lines {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" {
			if started {
				break
			}
			continue
		}
		if containsAny(line, upperTerms) {
			break
		}
		started = true
		b.WriteString(ocr.StripSpace(line))
	}
	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// MotorExtractor finds engine codes printed near the top of a sheet.
type MotorExtractor struct {
	cfg    config.Motor
	engine ocr.Engine
	rules  []Rule
	log    *logging.Logger
}

// NewMotorExtractor returns an extractor that recognizes text with engine.
func NewMotorExtractor(cfg config.Motor, engine ocr.Engine, log *logging.Logger) (*MotorExtractor, error) {
	rules, err := CompileRules(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	return &MotorExtractor{cfg: cfg, engine: engine, rules: rules, log: log}, nil
}

// TextBlocks locates candidate text lines in the top section: dark strokes
// are binarized, dilated with a wide short rectangle so characters of a line
// merge, and the resulting blocks filtered by size. Blocks are returned top
// to bottom, then left to right.
func (m *MotorExtractor) TextBlocks(top image.Image, stage StageFunc) []image.Rectangle {
	bw := imaging.Binarize(top, true)
	stage.save("motor_thresh", bw)

	dilated := imaging.MaskFromImage(bw).DilateRect(m.cfg.DilateWidth, m.cfg.DilateHeight)
	stage.save("motor_dilated", dilated.Image())

	maxW := m.cfg.MaxWidth
	if maxW == 0 {
		maxW = dilated.Width() - 1
	}

	regions := FindRegions(dilated)
	SortTopLeft(regions)

	blocks := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		w, h := r.Rect.Dx(), r.Rect.Dy()
		if w < m.cfg.MinWidth || w > maxW || h < m.cfg.MinHeight || h > m.cfg.MaxHeight {
			continue
		}
		blocks = append(blocks, r.Rect)
	}
	return blocks
}

// Extract returns the distinct motor codes found in img, in the order found.
// The result is never nil.
func (m *MotorExtractor) Extract(img image.Image, stage StageFunc) []string {
	codes := make([]string, 0)

	top := imaging.TopSection(img, m.cfg.TopFraction)
	gray := imaging.Grayscale(top)

	for i, block := range m.TextBlocks(top, stage) {
		rect := imaging.PadRect(block, m.cfg.Padding, m.cfg.Padding, gray.Bounds())
		roi, err := imaging.Crop(gray, rect)
		if err != nil {
			continue
		}
		roi = imaging.Upscale(roi, m.cfg.Upscale)
		stage.save(fmt.Sprintf("motor_roi_%d", i+1), roi)

		text, err := m.engine.Recognize(roi, ocr.ModeTextBlock)
		if err != nil {
			m.log.Debug("text OCR failed", "block", i+1, "error", err)
			continue
		}

		code, ok := m.Match(text)
		if !ok {
			continue
		}
		if !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}
	return codes
}

// Match reconstructs the candidate from recognized text and runs the cascade.
// Codes shorter than the configured minimum are rejected.
func (m *MotorExtractor) Match(text string) (string, bool) {
	candidate := ReconstructCode(ocr.Lines(text), m.cfg.Terminators)
	if candidate == "" {
		return "", false
	}
	code, rule, ok := MatchCode(m.rules, candidate)
	if !ok {
		m.log.Debug("no motor pattern matched", "candidate", candidate)
		return "", false
	}
	if len(code) < m.cfg.MinLength {
		m.log.Debug("motor code too short", "code", code, "rule", rule)
		return "", false
	}
	m.log.Debug("motor code matched", "code", code, "rule", rule)
	return code, true
}
