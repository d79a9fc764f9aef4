package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/imaging"
)

// Region is a connected component of a mask, summarized by its bounding box.
type Region struct {
	Rect image.Rectangle
	Area int // number of pixels in the component
}

// Ratio returns width / height of the bounding box.
func (r Region) Ratio() float64 {
	if r.Rect.Dy() == 0 {
		return 0
	}
	return float64(r.Rect.Dx()) / float64(r.Rect.Dy())
}

// FindRegions enumerates the external 8-connected components of m, in scan
// order of each component's first pixel (top to bottom, left to right).
//
// A component is external when it is not enclosed by another component:
// it touches the mask border or background that is 4-connected to the border.
// Components sitting inside the holes of other components are skipped.
func FindRegions(m *imaging.Mask) []Region {
	width, height := m.Width(), m.Height()
	outside := outerBackground(m)

	visited := make([]bool, width*height)
	var regions []Region

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !m.IsSet(x, y) || visited[y*width+x] {
				continue
			}
			r, external := floodFill(m, visited, outside, x, y)
			if external {
				regions = append(regions, r)
			}
		}
	}
	return regions
}

// floodFill collects the 8-connected component containing (startX, startY)
// with an explicit stack.
func floodFill(m *imaging.Mask, visited, outside []bool, startX, startY int) (Region, bool) {
	width, height := m.Width(), m.Height()
	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	rect := image.Rect(startX, startY, startX+1, startY+1)
	area := 0
	external := false

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		rect = rect.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		if !external {
			if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
				external = true
			} else if outside[p.Y*width+p.X-1] || outside[p.Y*width+p.X+1] ||
				outside[(p.Y-1)*width+p.X] || outside[(p.Y+1)*width+p.X] {
				external = true
			}
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				if visited[ny*width+nx] || !m.IsSet(nx, ny) {
					continue
				}
				visited[ny*width+nx] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}
	return Region{Rect: rect, Area: area}, external
}

// outerBackground marks the clear pixels 4-connected to the mask border.
func outerBackground(m *imaging.Mask) []bool {
	width, height := m.Width(), m.Height()
	outside := make([]bool, width*height)
	var stack []image.Point

	push := func(x, y int) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		if outside[y*width+x] || m.IsSet(x, y) {
			return
		}
		outside[y*width+x] = true
		stack = append(stack, image.Point{X: x, Y: y})
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X-1, p.Y)
		push(p.X+1, p.Y)
		push(p.X, p.Y-1)
		push(p.X, p.Y+1)
	}
	return outside
}

// SortTopLeft orders regions top to bottom, then left to right, by the
// top-left corner of their bounding boxes.
func SortTopLeft(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Rect.Min, regions[j].Rect.Min
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// GeometryFilter keeps regions shaped like groups of digits.
type GeometryFilter struct {
	cfg config.Geometry
}

// NewGeometryFilter returns a filter using the given bounds.
func NewGeometryFilter(cfg config.Geometry) GeometryFilter {
	return GeometryFilter{cfg: cfg}
}

// Accept reports whether r passes every bound. Values exactly at a threshold
// pass.
func (f GeometryFilter) Accept(r Region) bool {
	w, h := r.Rect.Dx(), r.Rect.Dy()
	if r.Area < f.cfg.MinArea || w < f.cfg.MinWidth || h < f.cfg.MinHeight || h == 0 {
		return false
	}
	ratio := r.Ratio()
	return ratio >= f.cfg.MinRatio && ratio <= f.cfg.MaxRatio
}

// Filter returns the accepted regions, preserving order.
func (f GeometryFilter) Filter(regions []Region) []Region {
	kept := make([]Region, 0, len(regions))
	for _, r := range regions {
		if f.Accept(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
