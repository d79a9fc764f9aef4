package detection

import (
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/ocr"
	"github.com/ironsheep/red-numbers/internal/ocr/ocrtest"
)

func defaultRules(t *testing.T) []Rule {
	t.Helper()
	rules, err := CompileRules(config.Default().Motor.Patterns)
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}
	return rules
}

func TestMatchCode_Cascade(t *testing.T) {
	rules := defaultRules(t)

	tests := []struct {
		candidate string
		wantCode  string
		wantRule  string
	}{
		{"1.6/EP6FADTXHPD-5GQ-5G06", "1.6/EP6FADTXHPD-5GQ-5G06", "hyphen2"},
		{"1.5/B38A15P", "1.5/B38A15P", "medium"},
		{"MOTOR1.6/EP6FADTXHPD-5GQ", "1.6/EP6FADTXHPD-5GQ", "hyphen1"},
		{"2.0/123ABC", "2.0/123ABC", "simple"},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			code, rule, ok := MatchCode(rules, tt.candidate)
			if !ok {
				t.Fatal("expected a match")
			}
			if code != tt.wantCode || rule != tt.wantRule {
				t.Errorf("got (%q, %s), want (%q, %s)", code, rule, tt.wantCode, tt.wantRule)
			}
		})
	}
}

func TestMatchCode_NoMatch(t *testing.T) {
	if _, _, ok := MatchCode(defaultRules(t), "ENGINE CODE UNKNOWN"); ok {
		t.Error("expected no match")
	}
}

func TestCompileRules_Invalid(t *testing.T) {
	if _, err := CompileRules([]config.Pattern{{Name: "bad", Expr: "(["}}); err == nil {
		t.Error("expected compile error")
	}
}

func TestReconstructCode(t *testing.T) {
	terms := config.Default().Motor.Terminators

	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"terminator truncates", []string{"1.5/B38A15P", "KW: 112", "CV: 150"}, "1.5/B38A15P"},
		{"leading blanks skipped", []string{"", "  ", "1.5/B38A15P"}, "1.5/B38A15P"},
		{"blank line stops", []string{"1.6/EP6FADTXHPD-", "", "5GQ-5G06"}, "1.6/EP6FADTXHPD-"},
		{"lines joined", []string{"1.6/EP6 FADTXHPD-", "5GQ-5G06"}, "1.6/EP6FADTXHPD-5GQ-5G06"},
		{"case-insensitive terminator", []string{"1.5/b38a15p", "output kw: 80"}, "1.5/B38A15P"},
		{"terminator mid-line", []string{"ABC", "XYZ VIN123"}, "ABC"},
		{"terminator first", []string{"HP: 90", "1.5/B38A15P"}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconstructCode(tt.lines, terms); got != tt.want {
				t.Errorf("ReconstructCode(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestMotorExtractor_Match(t *testing.T) {
	m, err := NewMotorExtractor(config.Default().Motor, ocrtest.New(nil), nil)
	if err != nil {
		t.Fatal(err)
	}

	if code, ok := m.Match("1.5/B38A15P\nKW: 112\nCV: 150\n"); !ok || code != "1.5/B38A15P" {
		t.Errorf("Match = %q, %v", code, ok)
	}
	if code, ok := m.Match("1.5/B3"); ok {
		t.Errorf("code %q is shorter than the minimum and should be rejected", code)
	}
	if _, ok := m.Match("\n\n"); ok {
		t.Error("blank text should not match")
	}
}

// motorSheet draws two text-like dark bars in the upper part of a sheet and a
// rule spanning the full width.
func motorSheet() *image.RGBA {
	img := createCanvas(400, 300)
	fillRect(img, image.Rect(40, 30, 160, 44), black)
	fillRect(img, image.Rect(40, 80, 160, 94), black)
	fillRect(img, image.Rect(0, 150, 400, 155), black)
	return img
}

func TestMotorExtractor_TextBlocks(t *testing.T) {
	m, err := NewMotorExtractor(config.Default().Motor, ocrtest.New(nil), nil)
	if err != nil {
		t.Fatal(err)
	}

	blocks := m.TextBlocks(motorSheet(), nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (the full-width rule is rejected): %v", len(blocks), blocks)
	}
	if blocks[0].Min.Y > blocks[1].Min.Y {
		t.Error("blocks should be ordered top to bottom")
	}
	// 12 pixels of dilation on each side, one above and below
	if blocks[0] != image.Rect(28, 29, 172, 45) {
		t.Errorf("first block = %v", blocks[0])
	}
}

func TestMotorExtractor_Extract(t *testing.T) {
	engine := ocrtest.New(ocrtest.Script(map[ocr.Mode][]ocrtest.Response{
		ocr.ModeTextBlock: {
			{Text: "1.6/EP6FADTXHPD-5GQ-5G06\nKW: 88"},
			{Text: "1.5/B38A15P\nCV: 150"},
		},
	}))
	m, err := NewMotorExtractor(config.Default().Motor, engine, nil)
	if err != nil {
		t.Fatal(err)
	}

	codes := m.Extract(motorSheet(), nil)
	want := []string{"1.6/EP6FADTXHPD-5GQ-5G06", "1.5/B38A15P"}
	if strings.Join(codes, ",") != strings.Join(want, ",") {
		t.Errorf("Extract = %v, want %v", codes, want)
	}

	calls := engine.Calls()
	if len(calls) != 2 || calls[0].Mode != ocr.ModeTextBlock {
		t.Fatalf("unexpected OCR calls %+v", calls)
	}
	// padded block (144+10)x(16+10), upscaled 2x
	if calls[0].Size != (image.Point{X: 308, Y: 52}) {
		t.Errorf("OCR input size = %v, want 308x52", calls[0].Size)
	}
}

func TestMotorExtractor_ExtractDeduplicates(t *testing.T) {
	engine := ocrtest.New(func(image.Image, ocr.Mode) (string, error) {
		return "1.5/B38A15P", nil
	})
	m, err := NewMotorExtractor(config.Default().Motor, engine, nil)
	if err != nil {
		t.Fatal(err)
	}

	if codes := m.Extract(motorSheet(), nil); len(codes) != 1 {
		t.Errorf("Extract = %v, want a single code", codes)
	}
}

func TestMotorExtractor_BlankSheet(t *testing.T) {
	engine := ocrtest.New(nil)
	m, err := NewMotorExtractor(config.Default().Motor, engine, nil)
	if err != nil {
		t.Fatal(err)
	}

	codes := m.Extract(createCanvas(200, 200), nil)
	if codes == nil || len(codes) != 0 {
		t.Errorf("Extract = %#v, want empty non-nil slice", codes)
	}
	if len(engine.Calls()) != 0 {
		t.Error("no OCR should run without text blocks")
	}
}

func TestMotorExtractor_TopFractionLimitsSearch(t *testing.T) {
	cfg := config.Default().Motor
	cfg.TopFraction = 0.2 // 60 of 300 rows: only the first bar

	engine := ocrtest.New(nil)
	m, err := NewMotorExtractor(cfg, engine, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.Extract(motorSheet(), nil)
	if got := len(engine.Calls()); got != 1 {
		t.Errorf("got %d OCR calls in the top 20%%, want 1", got)
	}
}
