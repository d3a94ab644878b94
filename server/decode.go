package server

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/pipeline"
	"go.viam.com/grasp/projection"
)

// Input tensor names accepted by Infer.
const (
	DepthTensorName      = "depth"
	IntrinsicsTensorName = "intrinsics"
	MasksTensorName      = "masks"
	BoxesTensorName      = "boxes"
)

// requestFromTensors turns the named input tensors of an InferRequest into a
// pipeline request. Only the depth tensor is required.
func requestFromTensors(ts inference.Tensors) (pipeline.Request, error) {
	var req pipeline.Request

	dt, ok := ts[DepthTensorName]
	if !ok {
		return req, errors.Errorf("input tensor %q is required", DepthTensorName)
	}
	depth, err := depthFromTensor(dt)
	if err != nil {
		return req, errors.Wrapf(err, "input tensor %q", DepthTensorName)
	}
	req.Depth = depth

	if it, ok := ts[IntrinsicsTensorName]; ok {
		intrinsics, err := intrinsicsFromTensor(it, depth.Width(), depth.Height())
		if err != nil {
			return req, errors.Wrapf(err, "input tensor %q", IntrinsicsTensorName)
		}
		req.Intrinsics = intrinsics
	}

	var masks []*depthmap.Mask
	if mt, ok := ts[MasksTensorName]; ok {
		if masks, err = masksFromTensor(mt); err != nil {
			return req, errors.Wrapf(err, "input tensor %q", MasksTensorName)
		}
	}
	var boxes []image.Rectangle
	if bt, ok := ts[BoxesTensorName]; ok {
		if boxes, err = boxesFromTensor(bt); err != nil {
			return req, errors.Wrapf(err, "input tensor %q", BoxesTensorName)
		}
	}
	detections, err := mergeDetections(masks, boxes)
	if err != nil {
		return req, err
	}
	req.Detections = detections
	return req, nil
}

// depthFromTensor reads an HxW depth image. Float tensors are meters with NaN
// holes; uint16 tensors are millimeters with zero holes.
func depthFromTensor(t *tensor.Dense) (*depthmap.DepthMap, error) {
	rows, cols, err := gridDims(t.Shape())
	if err != nil {
		return nil, err
	}
	var data []float64
	switch raw := t.Data().(type) {
	case []float32:
		data = make([]float64, len(raw))
		for i, v := range raw {
			data[i] = float64(v)
		}
	case []float64:
		data = make([]float64, len(raw))
		copy(data, raw)
	case []uint16:
		data = make([]float64, len(raw))
		for i, v := range raw {
			if v == 0 {
				data[i] = math.NaN()
			} else {
				data[i] = float64(v) * 0.001
			}
		}
	default:
		return nil, errors.Errorf("unsupported depth data type %T", raw)
	}
	if len(data) != rows*cols {
		return nil, errors.Errorf("depth has %d values but shape %v", len(data), t.Shape())
	}
	return depthmap.NewDepthMap(cols, rows, data)
}

// intrinsicsFromTensor reads a row-major camera matrix, either 3x3 or a flat
// list of nine values.
func intrinsicsFromTensor(t *tensor.Dense, width, height int) (*projection.PinholeCameraIntrinsics, error) {
	vals, err := inference.ToFloat64Slice(t.Data())
	if err != nil {
		return nil, err
	}
	return projection.NewIntrinsicsFromMatrix(vals, width, height)
}

// masksFromTensor reads NxHxW detection masks, nonzero meaning on. A plain
// HxW tensor is treated as a single mask.
func masksFromTensor(t *tensor.Dense) ([]*depthmap.Mask, error) {
	shape := t.Shape()
	var n, rows, cols int
	switch len(shape) {
	case 2:
		n, rows, cols = 1, shape[0], shape[1]
	case 3:
		n, rows, cols = shape[0], shape[1], shape[2]
	default:
		return nil, errors.Errorf("masks must be NxHxW, got shape %v", shape)
	}
	vals, err := inference.ToFloat64Slice(t.Data())
	if err != nil {
		return nil, err
	}
	if len(vals) != n*rows*cols {
		return nil, errors.Errorf("masks have %d values but shape %v", len(vals), shape)
	}
	masks := make([]*depthmap.Mask, 0, n)
	for i := 0; i < n; i++ {
		data := make([]uint8, rows*cols)
		for j, v := range vals[i*rows*cols : (i+1)*rows*cols] {
			if v != 0 {
				data[j] = 1
			}
		}
		m, err := depthmap.NewMaskFromData(cols, rows, data)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return masks, nil
}

// boxesFromTensor reads Nx4 detection boxes as [x0 y0 x1 y1] in source
// pixels. A flat list of four values is a single box.
func boxesFromTensor(t *tensor.Dense) ([]image.Rectangle, error) {
	shape := t.Shape()
	var n int
	switch {
	case len(shape) == 1 && shape[0] == 4:
		n = 1
	case len(shape) == 2 && shape[1] == 4:
		n = shape[0]
	default:
		return nil, errors.Errorf("boxes must be Nx4, got shape %v", shape)
	}
	vals, err := inference.ToFloat64Slice(t.Data())
	if err != nil {
		return nil, err
	}
	if len(vals) != n*4 {
		return nil, errors.Errorf("boxes have %d values but shape %v", len(vals), shape)
	}
	boxes := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		v := vals[i*4 : (i+1)*4]
		boxes = append(boxes, image.Rect(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return boxes, nil
}

// mergeDetections pairs masks and boxes index by index. Either side may be
// absent; if both are present their counts must agree.
func mergeDetections(masks []*depthmap.Mask, boxes []image.Rectangle) ([]pipeline.Detection, error) {
	if len(masks) > 0 && len(boxes) > 0 && len(masks) != len(boxes) {
		return nil, errors.Errorf("got %d masks and %d boxes", len(masks), len(boxes))
	}
	n := len(masks)
	if len(boxes) > n {
		n = len(boxes)
	}
	if n == 0 {
		return nil, nil
	}
	dets := make([]pipeline.Detection, n)
	for i := range dets {
		if i < len(masks) {
			dets[i].Mask = masks[i]
		}
		if i < len(boxes) {
			dets[i].Box = boxes[i]
		}
	}
	return dets, nil
}

func gridDims(shape tensor.Shape) (int, int, error) {
	dims := make([]int, 0, len(shape))
	for _, d := range shape {
		if d != 1 {
			dims = append(dims, d)
		}
	}
	if len(dims) != 2 {
		return 0, 0, errors.Errorf("expected a 2D tensor, got shape %v", shape)
	}
	return dims[0], dims[1], nil
}
