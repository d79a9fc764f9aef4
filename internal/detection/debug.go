package detection

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/ironsheep/red-numbers/internal/imaging"
)

// DebugSink receives intermediate images. name identifies the source image
// (its file identifier) and stage the pipeline step, e.g. "mask" or "roi_3".
type DebugSink interface {
	Save(name, stage string, img image.Image) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Save(string, string, image.Image) error { return nil }

// DirSink writes each stage as <Dir>/<name>_<stage>.png.
type DirSink struct {
	Dir string
}

func (s DirSink) Save(name, stage string, img image.Image) error {
	return imaging.Save(img, filepath.Join(s.Dir, fmt.Sprintf("%s_%s.png", name, stage)))
}

// StageFunc saves one intermediate image for the image being processed.
// A nil StageFunc discards.
type StageFunc func(stage string, img image.Image)

func (f StageFunc) save(stage string, img image.Image) {
	if f != nil {
		f(stage, img)
	}
}
