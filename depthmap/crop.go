package depthmap

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrOutOfBounds means a crop window does not fit inside its source image.
var ErrOutOfBounds = errors.New("crop window extends outside the source image")

// CropGeometry describes the square window taken out of a full depth frame
// and the resolution that window is resampled to.
type CropGeometry struct {
	// CropSize is the side length of the square window in source pixels.
	CropSize int `json:"crop_size"`
	// OutputSize is the side length after resampling, the network input size.
	OutputSize int `json:"output_size"`
	// YOffset shifts the window up from the vertical center.
	YOffset int `json:"crop_y_offset"`
	// ImageWidth and ImageHeight are the source frame dimensions.
	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// Window returns the source rectangle the crop covers. The window is centered
// horizontally and YOffset rows above the vertical center.
func (cg CropGeometry) Window() image.Rectangle {
	x0 := (cg.ImageWidth - cg.CropSize) / 2
	y0 := (cg.ImageHeight-cg.CropSize)/2 - cg.YOffset
	return image.Rect(x0, y0, x0+cg.CropSize, y0+cg.CropSize)
}

// Validate returns an error if the geometry is degenerate or its window falls
// outside the source frame.
func (cg CropGeometry) Validate() error {
	if cg.CropSize <= 0 {
		return errors.Errorf("crop_size must be positive, got %d", cg.CropSize)
	}
	if cg.OutputSize <= 0 {
		return errors.Errorf("output_size must be positive, got %d", cg.OutputSize)
	}
	if cg.ImageWidth <= 0 || cg.ImageHeight <= 0 {
		return errors.Errorf("source dimensions must be positive, got %dx%d", cg.ImageWidth, cg.ImageHeight)
	}
	win := cg.Window()
	if win.Min.X < 0 || win.Min.Y < 0 || win.Max.X > cg.ImageWidth || win.Max.Y > cg.ImageHeight {
		return errors.Wrapf(ErrOutOfBounds, "window %v, image %dx%d", win, cg.ImageWidth, cg.ImageHeight)
	}
	return nil
}

// CropAndRepair cuts the geometry's window out of the depth map, fills any
// missing readings, and resamples the result to the output resolution. It
// returns the repaired depth along with the mask of pixels that were repaired.
func CropAndRepair(dm *DepthMap, geom CropGeometry) (*DepthMap, *Mask, error) {
	if err := geom.Validate(); err != nil {
		return nil, nil, err
	}
	if dm.Width() != geom.ImageWidth || dm.Height() != geom.ImageHeight {
		return nil, nil, errors.Wrapf(ErrOutOfBounds,
			"depth is %dx%d but geometry expects %dx%d",
			dm.Width(), dm.Height(), geom.ImageWidth, geom.ImageHeight)
	}

	win := geom.Window()
	repaired, holes := repairHoles(dm.crop(win.Min.X, win.Min.Y, win.Max.X, win.Max.Y))
	return repaired.ResizeArea(geom.OutputSize, geom.OutputSize),
		holes.ResizeNearest(geom.OutputSize, geom.OutputSize),
		nil
}

// CropMask aligns a full-frame selection mask with the cropped depth grid.
// The result is float valued: area averaging blends pixels on region edges,
// which is fine since selection multiplies scores by it.
func CropMask(m *Mask, geom CropGeometry) (*mat.Dense, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if m.Width() != geom.ImageWidth || m.Height() != geom.ImageHeight {
		return nil, errors.Wrapf(ErrOutOfBounds,
			"mask is %dx%d but geometry expects %dx%d",
			m.Width(), m.Height(), geom.ImageWidth, geom.ImageHeight)
	}

	win := geom.Window()
	sub := m.crop(win.Min.X, win.Min.Y, win.Max.X, win.Max.Y)
	floats := make([]float64, len(sub.data))
	for i, v := range sub.data {
		floats[i] = float64(v)
	}
	resized := areaResize(floats, sub.width, sub.height, geom.OutputSize, geom.OutputSize)
	return mat.NewDense(geom.OutputSize, geom.OutputSize, resized), nil
}
