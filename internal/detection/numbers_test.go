package detection

import (
	stderrors "errors"
	"image"
	"testing"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/ocr"
	"github.com/ironsheep/red-numbers/internal/ocr/ocrtest"
)

func digitScript(responses ...ocrtest.Response) *ocrtest.Engine {
	return ocrtest.New(ocrtest.Script(map[ocr.Mode][]ocrtest.Response{
		ocr.ModeDigitLine: responses,
	}))
}

func newNumberExtractor(t *testing.T, engine ocr.Engine) *NumberExtractor {
	t.Helper()
	e, err := NewNumberExtractor(config.Default().Numbers, engine, nil)
	if err != nil {
		t.Fatalf("NewNumberExtractor: %v", err)
	}
	return e
}

func TestNewNumberExtractor_RepeatCountTooLarge(t *testing.T) {
	cfg := config.Default().Numbers
	cfg.MaxDigits = 1001
	if _, err := NewNumberExtractor(cfg, ocrtest.New(nil), nil); err == nil {
		t.Error("expected an error for a digit range the regexp engine cannot compile")
	}
}

func TestNumberExtractor_Valid(t *testing.T) {
	e := newNumberExtractor(t, ocrtest.New(nil))

	tests := []struct {
		text string
		want bool
	}{
		{"12a3", false},
		{"123", true},
		{"12345", true},
		{"123456", false},
		{"12", false},
		{"", false},
		{" 123", false},
	}
	for _, tt := range tests {
		if got := e.Valid(tt.text); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestNumberExtractor_FirstAttempt(t *testing.T) {
	img := createCanvas(200, 100)
	engine := digitScript(ocrtest.Response{Text: " 4521\n"})
	e := newNumberExtractor(t, engine)

	got, ok := e.Extract(img, Region{Rect: image.Rect(80, 40, 120, 60)}, 1, nil)
	if !ok || got != "4521" {
		t.Fatalf("Extract = %q, %v; want 4521", got, ok)
	}
	if calls := engine.Calls(); len(calls) != 1 || calls[0].Mode != ocr.ModeDigitLine {
		t.Errorf("expected one digit-line call, got %+v", calls)
	}
}

func TestNumberExtractor_InversionRetry(t *testing.T) {
	img := createCanvas(200, 100)
	engine := digitScript(
		ocrtest.Response{Text: "12a3"},
		ocrtest.Response{Text: "4521"},
	)
	e := newNumberExtractor(t, engine)

	got, ok := e.Extract(img, Region{Rect: image.Rect(80, 40, 120, 60)}, 1, nil)
	if !ok || got != "4521" {
		t.Fatalf("Extract = %q, %v; want 4521 from the inverted attempt", got, ok)
	}
	if n := len(engine.Calls()); n != 2 {
		t.Errorf("expected 2 OCR calls, got %d", n)
	}
}

func TestNumberExtractor_NoMatch(t *testing.T) {
	img := createCanvas(200, 100)
	engine := digitScript(
		ocrtest.Response{Text: "123456"},
		ocrtest.Response{Text: ""},
	)
	e := newNumberExtractor(t, engine)

	if got, ok := e.Extract(img, Region{Rect: image.Rect(80, 40, 120, 60)}, 1, nil); ok {
		t.Errorf("Extract = %q, want nothing", got)
	}
}

func TestNumberExtractor_InteriorSpaceRejected(t *testing.T) {
	img := createCanvas(200, 100)
	engine := digitScript(
		ocrtest.Response{Text: "12 34"},
		ocrtest.Response{Text: "12 34\n"},
	)
	e := newNumberExtractor(t, engine)

	if got, ok := e.Extract(img, Region{Rect: image.Rect(80, 40, 120, 60)}, 1, nil); ok {
		t.Errorf("Extract = %q, want nothing: separated marks must not join into one number", got)
	}
	if n := len(engine.Calls()); n != 2 {
		t.Errorf("expected 2 OCR calls, got %d", n)
	}
}

func TestNumberExtractor_OCRErrorsAreNotFatal(t *testing.T) {
	img := createCanvas(200, 100)
	engine := digitScript(
		ocrtest.Response{Err: stderrors.New("engine hiccup")},
		ocrtest.Response{Text: "777"},
	)
	e := newNumberExtractor(t, engine)

	got, ok := e.Extract(img, Region{Rect: image.Rect(80, 40, 120, 60)}, 1, nil)
	if !ok || got != "777" {
		t.Errorf("Extract = %q, %v; want 777", got, ok)
	}
}

func TestNumberExtractor_PaddingIsClamped(t *testing.T) {
	img := createCanvas(100, 100)
	engine := digitScript(ocrtest.Response{Text: "101"})
	e := newNumberExtractor(t, engine)

	if _, ok := e.Extract(img, Region{Rect: image.Rect(0, 0, 20, 15)}, 1, nil); !ok {
		t.Fatal("expected a number")
	}
	calls := engine.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	// 20+19 wide, 15+12 tall: left and top padding clipped by the image edge
	if calls[0].Size != (image.Point{X: 39, Y: 27}) {
		t.Errorf("ROI size = %v, want 39x27", calls[0].Size)
	}
}

func TestNumberExtractor_PaddingAtFarEdge(t *testing.T) {
	img := createCanvas(100, 100)
	engine := digitScript(ocrtest.Response{Text: "101"})
	e := newNumberExtractor(t, engine)

	e.Extract(img, Region{Rect: image.Rect(90, 95, 100, 100)}, 1, nil)
	if calls := engine.Calls(); len(calls) != 1 || calls[0].Size != (image.Point{X: 29, Y: 17}) {
		t.Errorf("unexpected ROI calls %+v", calls)
	}
}

func TestNumberExtractor_ExtractAllDeduplicatesAndSorts(t *testing.T) {
	img := createCanvas(300, 100)
	engine := digitScript(
		ocrtest.Response{Text: "202"},
		ocrtest.Response{Text: "101"},
		ocrtest.Response{Text: "202"},
	)
	e := newNumberExtractor(t, engine)
	regions := []Region{
		{Rect: image.Rect(10, 10, 50, 30)},
		{Rect: image.Rect(100, 10, 140, 30)},
		{Rect: image.Rect(200, 10, 240, 30)},
	}

	got := e.ExtractAll(img, regions, nil)
	if len(got) != 2 || got[0] != "101" || got[1] != "202" {
		t.Errorf("ExtractAll = %v, want [101 202]", got)
	}
}

func TestNumberExtractor_ExtractAllNoRegions(t *testing.T) {
	e := newNumberExtractor(t, ocrtest.New(nil))
	got := e.ExtractAll(createCanvas(10, 10), nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("ExtractAll = %#v, want empty non-nil slice", got)
	}
}

func TestSortNumbers(t *testing.T) {
	numbers := []string{"1000", "999", "123", "0123", "45"}
	SortNumbers(numbers)

	want := []string{"45", "0123", "123", "999", "1000"}
	for i := range want {
		if numbers[i] != want[i] {
			t.Fatalf("SortNumbers = %v, want %v", numbers, want)
		}
	}
}
