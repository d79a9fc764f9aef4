package detection

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/ironsheep/red-numbers/internal/config"
)

var (
	white   = color.RGBA{255, 255, 255, 255}
	black   = color.RGBA{0, 0, 0, 255}
	inkRed  = color.RGBA{220, 20, 20, 255}
	darkRed = color.RGBA{100, 0, 0, 255}
)

// createCanvas creates a white in-memory test image
func createCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// testConfig returns the default configuration with a fixed worker count.
func testConfig() config.Config {
	return config.Default().WithWorkers(1)
}

// recordingSink keeps the stage names it receives per image.
type recordingSink struct {
	mu     sync.Mutex
	stages map[string][]string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{stages: make(map[string][]string)}
}

func (s *recordingSink) Save(name, stage string, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[name] = append(s.stages[name], stage)
	return nil
}

func (s *recordingSink) has(name, stage string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stages[name] {
		if st == stage {
			return true
		}
	}
	return false
}
