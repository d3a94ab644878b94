// Package depthmap implements the depth-image handling of the grasp pipeline:
// cropping, hole repair, and resampling of metric depth grids and the masks
// aligned with them.
package depthmap

import (
	"math"

	"github.com/pkg/errors"
)

// DepthMap is a dense depth grid. Values are meters; missing readings are NaN.
type DepthMap struct {
	width  int
	height int
	data   []float64
}

// NewEmptyDepthMap returns a depth map of the given dimensions with every
// reading missing.
func NewEmptyDepthMap(width, height int) *DepthMap {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = math.NaN()
	}
	return &DepthMap{width: width, height: height, data: data}
}

// NewDepthMap wraps row-major depth data in meters.
func NewDepthMap(width, height int, data []float64) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("expected %d depth values for a %dx%d map, got %d",
			width*height, width, height, len(data))
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the horizontal dimension of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical dimension of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// At returns the depth at (x, y) in meters. NaN means missing.
func (dm *DepthMap) At(x, y int) float64 {
	return dm.data[y*dm.width+x]
}

// Set writes the depth at (x, y) in meters.
func (dm *DepthMap) Set(x, y int, z float64) {
	dm.data[y*dm.width+x] = z
}

// Contains returns whether (x, y) falls inside the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// IsHole returns whether the reading at (x, y) is missing.
func (dm *DepthMap) IsHole(x, y int) bool {
	return math.IsNaN(dm.At(x, y))
}

// Data exposes the row-major backing slice.
func (dm *DepthMap) Data() []float64 {
	return dm.data
}

// Clone returns a copy that shares nothing with the original.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]float64, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// MinMax returns the smallest and largest valid readings, skipping holes.
// Both are NaN when the map has no valid readings at all.
func (dm *DepthMap) MinMax() (float64, float64) {
	min, max := math.NaN(), math.NaN()
	for _, z := range dm.data {
		if math.IsNaN(z) {
			continue
		}
		if math.IsNaN(min) || z < min {
			min = z
		}
		if math.IsNaN(max) || z > max {
			max = z
		}
	}
	return min, max
}

// crop copies out the subgrid covering [x0, x1) x [y0, y1). The caller is
// responsible for bounds checking.
func (dm *DepthMap) crop(x0, y0, x1, y1 int) *DepthMap {
	w, h := x1-x0, y1-y0
	out := &DepthMap{width: w, height: h, data: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		copy(out.data[y*w:(y+1)*w], dm.data[(y0+y)*dm.width+x0:(y0+y)*dm.width+x1])
	}
	return out
}
