// Package heatmap validates the named heat maps returned by the grasp
// scorer and selects the best grasp pixel from them.
package heatmap

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"go.viam.com/grasp/inference"
)

// Names of the tensors the scorer must return. The quality map keeps the
// network's own output name "image".
const (
	QualityTensorName = "image"
	AngleTensorName   = "angle"
	WidthTensorName   = "width"
)

// ErrMissingTensor means the scorer response did not contain one of the
// required named tensors.
var ErrMissingTensor = errors.New("scorer response is missing a named tensor")

// Maps holds the three aligned grids produced by the scorer: grasp quality,
// gripper angle in radians, and gripper width in pixels.
type Maps struct {
	rows, cols int
	quality    []float64
	angle      []float64
	width      []float64
}

// FromTensors validates a scorer response and bundles its quality, angle and
// width grids. All three tensors must be present and squeeze to one shared
// two dimensional shape.
func FromTensors(ts inference.Tensors) (*Maps, error) {
	quality, rows, cols, err := gridFromTensor(ts, QualityTensorName)
	if err != nil {
		return nil, err
	}
	angle, aRows, aCols, err := gridFromTensor(ts, AngleTensorName)
	if err != nil {
		return nil, err
	}
	width, wRows, wCols, err := gridFromTensor(ts, WidthTensorName)
	if err != nil {
		return nil, err
	}
	if aRows != rows || aCols != cols || wRows != rows || wCols != cols {
		return nil, errors.Wrapf(inference.ErrInferenceService,
			"heat maps disagree on shape: quality %dx%d, angle %dx%d, width %dx%d",
			rows, cols, aRows, aCols, wRows, wCols)
	}
	return &Maps{rows: rows, cols: cols, quality: quality, angle: angle, width: width}, nil
}

func gridFromTensor(ts inference.Tensors, name string) ([]float64, int, int, error) {
	t, ok := ts[name]
	if !ok {
		return nil, 0, 0, errors.Wrapf(ErrMissingTensor, "no tensor named %q", name)
	}
	rows, cols, err := squeezeTo2D(t.Shape())
	if err != nil {
		return nil, 0, 0, errors.Wrapf(inference.ErrInferenceService, "tensor %q: %v", name, err)
	}
	data, err := inference.ToFloat64Slice(t.Data())
	if err != nil {
		return nil, 0, 0, errors.Wrapf(inference.ErrInferenceService, "tensor %q: %v", name, err)
	}
	if len(data) != rows*cols {
		return nil, 0, 0, errors.Wrapf(inference.ErrInferenceService,
			"tensor %q has %d values for a %dx%d grid", name, len(data), rows, cols)
	}
	return data, rows, cols, nil
}

func squeezeTo2D(shape tensor.Shape) (int, int, error) {
	dims := make([]int, 0, len(shape))
	for _, s := range shape {
		if s != 1 {
			dims = append(dims, s)
		}
	}
	if len(dims) != 2 {
		return 0, 0, errors.Errorf("shape %v does not squeeze to two dimensions", shape)
	}
	return dims[0], dims[1], nil
}

// Dims returns the shared grid shape as rows, cols.
func (m *Maps) Dims() (int, int) {
	return m.rows, m.cols
}

// QualityAt returns the grasp quality at a row major index.
func (m *Maps) QualityAt(idx int) float64 {
	return m.quality[idx]
}

// AngleAt returns the gripper angle in radians at a row major index.
func (m *Maps) AngleAt(idx int) float64 {
	return m.angle[idx]
}

// WidthAt returns the gripper width in pixels at a row major index.
func (m *Maps) WidthAt(idx int) float64 {
	return m.width[idx]
}

// Pixel converts a row major index back into grid coordinates.
func (m *Maps) Pixel(idx int) image.Point {
	return image.Point{X: idx % m.cols, Y: idx / m.cols}
}
