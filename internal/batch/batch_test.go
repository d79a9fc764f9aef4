package batch

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/detection"
	"github.com/ironsheep/red-numbers/internal/errors"
	"github.com/ironsheep/red-numbers/internal/ocr"
	"github.com/ironsheep/red-numbers/internal/ocr/ocrtest"
)

type fakeProcessor func(path string) (detection.Result, error)

func (f fakeProcessor) Process(path string) (detection.Result, error) { return f(path) }

func withProcessor(fn func(path string) (detection.Result, error)) ProcessorFunc {
	return func(ocr.Engine) (Processor, error) { return fakeProcessor(fn), nil }
}

func found(numbers ...string) detection.Result {
	res := detection.Empty()
	res.Numbers = append(res.Numbers, numbers...)
	return res
}

// writeSheet writes a white PNG with one red block that passes the geometry filter.
func writeSheet(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(60, 100, 100, 120), image.NewUniform(color.RGBA{220, 20, 20, 255}), image.Point{}, draw.Src)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeBroken(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_CompletenessWithUnreadableImages(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeSheet(t, dir, "a.png"),
		writeBroken(t, dir, "b.png"),
		writeSheet(t, dir, "c.png"),
		writeBroken(t, dir, "d.png"),
		writeSheet(t, dir, "e.png"),
	}

	var tracker ocrtest.Tracker
	factory := tracker.Factory(func(_ image.Image, mode ocr.Mode) (string, error) {
		if mode == ocr.ModeDigitLine {
			return "4521", nil
		}
		return "", nil
	})

	res, err := Run(context.Background(), config.Default(), paths, Options{Workers: 2, Factory: factory})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Images) != len(paths) {
		t.Fatalf("got %d entries, want %d", len(res.Images), len(paths))
	}
	if len(res.Failed) != 2 {
		t.Fatalf("got %d failures, want 2", len(res.Failed))
	}
	for _, f := range res.Failed {
		if !errors.HasCode(f.Err, errors.ErrorImageUnreadable) {
			t.Errorf("failure for %s: %v", f.Path, f.Err)
		}
		if r := res.Images[f.Path]; len(r.Numbers) != 0 || len(r.MotorCodes) != 0 {
			t.Errorf("failed image %s should have an empty result", f.Path)
		}
	}
	for _, p := range []string{paths[0], paths[2], paths[4]} {
		if got := res.Images[p].Numbers; !reflect.DeepEqual(got, []string{"4521"}) {
			t.Errorf("%s: numbers = %v", filepath.Base(p), got)
		}
	}

	if tracker.Created() != 2 {
		t.Errorf("created %d engines, want one per worker", tracker.Created())
	}
	if !tracker.AllClosed() {
		t.Error("every worker engine should be closed")
	}
}

func TestRun_ProgressReportsEveryImage(t *testing.T) {
	paths := []string{"/in/1.png", "/in/2.png", "/in/3.png", "/in/4.png"}

	var completed []int
	var names []string
	opts := Options{
		Workers:      3,
		NewProcessor: withProcessor(func(string) (detection.Result, error) { return found("123"), nil }),
		Progress: func(done, total int, name string) {
			if total != len(paths) {
				t.Errorf("total = %d", total)
			}
			completed = append(completed, done)
			names = append(names, name)
		},
	}

	if _, err := Run(context.Background(), config.Default(), paths, opts); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(completed, []int{1, 2, 3, 4}) {
		t.Errorf("progress counts = %v", completed)
	}
	if len(names) != 4 || filepath.Ext(names[0]) != ".png" || filepath.Dir(names[0]) != "." {
		t.Errorf("progress names should be base names, got %v", names)
	}
}

func TestRun_PanicIsIsolated(t *testing.T) {
	paths := []string{"/in/ok1.png", "/in/bad.png", "/in/ok2.png"}
	opts := Options{
		Workers: 2,
		NewProcessor: withProcessor(func(path string) (detection.Result, error) {
			if filepath.Base(path) == "bad.png" {
				panic("corrupt scanline")
			}
			return found("555"), nil
		}),
	}

	res, err := Run(context.Background(), config.Default(), paths, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Path != "/in/bad.png" {
		t.Fatalf("failures = %+v", res.Failed)
	}
	if !errors.HasCode(res.Failed[0].Err, errors.ErrorWorkerFailed) {
		t.Errorf("panic should be reported as WORKER_FAILED, got %v", res.Failed[0].Err)
	}
	if len(res.Images["/in/ok1.png"].Numbers) != 1 || len(res.Images["/in/ok2.png"].Numbers) != 1 {
		t.Error("sibling images should still be processed")
	}
}

func TestRun_PlainErrorsAreWrapped(t *testing.T) {
	opts := Options{
		Workers: 1,
		NewProcessor: withProcessor(func(string) (detection.Result, error) {
			return found("999"), stderrors.New("disk vanished")
		}),
	}

	res, err := Run(context.Background(), config.Default(), []string{"/in/a.png"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failed) != 1 || !errors.HasCode(res.Failed[0].Err, errors.ErrorWorkerFailed) {
		t.Fatalf("failures = %+v", res.Failed)
	}
	if n := len(res.Images["/in/a.png"].Numbers); n != 0 {
		t.Errorf("a failed image must be recorded empty, got %d numbers", n)
	}
}

func TestRun_FactoryFailure(t *testing.T) {
	sentinel := stderrors.New("tessdata not found")
	paths := []string{"/in/a.png", "/in/b.png", "/in/c.png"}

	res, err := Run(context.Background(), config.Default(), paths, Options{
		Workers: 2,
		Factory: ocrtest.FailingFactory(sentinel),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Failed) != len(paths) {
		t.Fatalf("got %d failures, want %d", len(res.Failed), len(paths))
	}
	for _, f := range res.Failed {
		if !errors.HasCode(f.Err, errors.ErrorWorkerFailed) || !stderrors.Is(f.Err, sentinel) {
			t.Errorf("unexpected failure %v", f.Err)
		}
	}
	if len(res.Images) != len(paths) {
		t.Errorf("got %d entries, want %d", len(res.Images), len(paths))
	}
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths := []string{"/in/1.png", "/in/2.png", "/in/3.png", "/in/4.png", "/in/5.png"}
	var calls atomic.Int32
	opts := Options{
		Workers: 1,
		NewProcessor: withProcessor(func(string) (detection.Result, error) {
			calls.Add(1)
			cancel()
			return found("100"), nil
		}),
	}

	res, err := Run(ctx, config.Default(), paths, opts)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(res.Images) != len(paths) {
		t.Fatalf("got %d entries, want %d", len(res.Images), len(paths))
	}
	if len(res.Canceled) == 0 || int(calls.Load())+len(res.Canceled) != len(paths) {
		t.Errorf("processed %d, canceled %v", calls.Load(), res.Canceled)
	}
	if n := len(res.Canceled); n > 0 && res.Canceled[n-1] != "/in/5.png" {
		t.Errorf("last canceled image = %s", res.Canceled[n-1])
	}
	if len(res.Images["/in/5.png"].Numbers) != 0 {
		t.Error("undispatched image should be recorded empty")
	}
}

func TestRun_DuplicatePathsProcessedOnce(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)
	opts := Options{
		Workers: 2,
		NewProcessor: withProcessor(func(path string) (detection.Result, error) {
			mu.Lock()
			seen[path]++
			mu.Unlock()
			return found("321"), nil
		}),
	}

	res, err := Run(context.Background(), config.Default(), []string{"/in/a.png", "/in/b.png", "/in/a.png"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Order, []string{"/in/a.png", "/in/b.png"}) {
		t.Errorf("Order = %v", res.Order)
	}
	if seen["/in/a.png"] != 1 {
		t.Errorf("a.png processed %d times", seen["/in/a.png"])
	}
}

func TestRun_NoImages(t *testing.T) {
	res, err := Run(context.Background(), config.Default(), nil, Options{Factory: ocrtest.FailingFactory(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Images) != 0 || len(Rows(res)) != 0 {
		t.Errorf("expected an empty result, got %+v", res)
	}
}

func TestRun_RequiresFactory(t *testing.T) {
	_, err := Run(context.Background(), config.Default(), []string{"/in/a.png"}, Options{})
	if !errors.HasCode(err, errors.ErrorInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		requested, configured, jobs, want int
	}{
		{4, 2, 10, 4},
		{0, 2, 10, 2},
		{8, 2, 3, 3},
	}
	for _, tt := range tests {
		if got := poolSize(tt.requested, tt.configured, tt.jobs); got != tt.want {
			t.Errorf("poolSize(%d, %d, %d) = %d, want %d", tt.requested, tt.configured, tt.jobs, got, tt.want)
		}
	}
	if got := poolSize(0, 0, 1000); got < 1 {
		t.Errorf("poolSize fell back to %d workers", got)
	}
}
