package depthmap

import (
	"image"

	"github.com/pkg/errors"
)

// Mask is a binary pixel grid aligned with a DepthMap. Every value is 0 or 1.
type Mask struct {
	width  int
	height int
	data   []uint8
}

// NewMask returns an all-zero mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{width: width, height: height, data: make([]uint8, width*height)}
}

// NewMaskFromData wraps row-major mask data. Any nonzero value counts as set.
func NewMaskFromData(width, height int, data []uint8) (*Mask, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("expected %d mask values for a %dx%d mask, got %d",
			width*height, width, height, len(data))
	}
	m := &Mask{width: width, height: height, data: data}
	for i, v := range data {
		if v > 1 {
			m.data[i] = 1
		}
	}
	return m, nil
}

// NewMaskFromRect returns a mask with the given rectangle set, clipped to the
// mask bounds.
func NewMaskFromRect(width, height int, r image.Rectangle) *Mask {
	m := NewMask(width, height)
	r = r.Intersect(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.data[y*width+x] = 1
		}
	}
	return m
}

// Width returns the horizontal dimension of the mask.
func (m *Mask) Width() int {
	return m.width
}

// Height returns the vertical dimension of the mask.
func (m *Mask) Height() int {
	return m.height
}

// On returns whether the mask is set at (x, y).
func (m *Mask) On(x, y int) bool {
	return m.data[y*m.width+x] != 0
}

// Set writes the mask value at (x, y).
func (m *Mask) Set(x, y int, on bool) {
	if on {
		m.data[y*m.width+x] = 1
	} else {
		m.data[y*m.width+x] = 0
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Data exposes the row-major backing slice.
func (m *Mask) Data() []uint8 {
	return m.data
}

// crop copies out the submask covering [x0, x1) x [y0, y1). The caller is
// responsible for bounds checking.
func (m *Mask) crop(x0, y0, x1, y1 int) *Mask {
	w, h := x1-x0, y1-y0
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		copy(out.data[y*w:(y+1)*w], m.data[(y0+y)*m.width+x0:(y0+y)*m.width+x1])
	}
	return out
}

// ResizeNearest resamples the mask with nearest-neighbor sampling, so the
// result still contains only 0 and 1.
func (m *Mask) ResizeNearest(width, height int) *Mask {
	if width == m.width && height == m.height {
		out := NewMask(width, height)
		copy(out.data, m.data)
		return out
	}
	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		sy := y * m.height / height
		for x := 0; x < width; x++ {
			sx := x * m.width / width
			out.data[y*width+x] = m.data[sy*m.width+sx]
		}
	}
	return out
}
