package detection

import (
	"image"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/imaging"
)

// Segmenter isolates red ink.
type Segmenter struct {
	cfg config.Color
}

// NewSegmenter returns a Segmenter for the given color configuration.
func NewSegmenter(cfg config.Color) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Segment returns a mask of the pixels that fall in either red range, cleaned
// by one closing and then one opening with a square kernel. The mask has the
// dimensions of img.
func (s *Segmenter) Segment(img image.Image) *imaging.Mask {
	raw := imaging.HSVMask(img, func(h, sat, v int) bool {
		return s.cfg.Range1.Contains(h, sat, v) || s.cfg.Range2.Contains(h, sat, v)
	})
	return raw.Close(s.cfg.KernelSize).Open(s.cfg.KernelSize)
}
