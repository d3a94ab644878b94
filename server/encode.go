package server

import (
	"gorgonia.org/tensor"

	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/pipeline"
)

// Output tensor names produced by Infer.
const (
	PositionTensorName    = "position"
	OrientationTensorName = "orientation"
	WidthTensorName       = "width"
	QualityTensorName     = "quality"
)

// graspsToTensors packs one grasp per row. Orientations are quaternions in
// xyzw order to match common robotics toolkits.
func graspsToTensors(grasps []pipeline.Grasp) inference.Tensors {
	n := len(grasps)
	positions := make([]float64, 0, n*3)
	orientations := make([]float64, 0, n*4)
	widths := make([]float64, 0, n)
	qualities := make([]float64, 0, n)
	for _, g := range grasps {
		pt := g.Pose.Point()
		positions = append(positions, pt.X, pt.Y, pt.Z)
		q := g.Pose.Orientation().Quaternion()
		orientations = append(orientations, q.Imag, q.Jmag, q.Kmag, q.Real)
		widths = append(widths, g.Width)
		qualities = append(qualities, g.Quality)
	}
	return inference.Tensors{
		PositionTensorName:    tensor.New(tensor.WithShape(n, 3), tensor.WithBacking(positions)),
		OrientationTensorName: tensor.New(tensor.WithShape(n, 4), tensor.WithBacking(orientations)),
		WidthTensorName:       tensor.New(tensor.WithShape(n), tensor.WithBacking(widths)),
		QualityTensorName:     tensor.New(tensor.WithShape(n), tensor.WithBacking(qualities)),
	}
}
