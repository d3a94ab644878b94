// Package inference connects the pipeline to the external grasp-prediction
// network over the mlmodel API: a depth image goes in, named heat maps come
// out.
package inference

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"go.viam.com/grasp/depthmap"
)

// ErrInferenceService means the external scorer failed or returned something
// unusable.
var ErrInferenceService = errors.New("inference service failure")

// InputTensorName is the tensor key the scorer expects the depth image under.
const InputTensorName = "image"

// Tensors are a data structure to hold the input and output map of tensors
// that a model uses, keyed by tensor name.
type Tensors map[string]*tensor.Dense

// Scorer runs the grasp-prediction network on prepared inputs. It is the
// pipeline's only view of the model; implementations decide where the model
// actually lives.
type Scorer interface {
	Infer(ctx context.Context, tensors Tensors) (Tensors, error)
	Close(ctx context.Context) error
}

// DepthTensor wraps a depth image as the scorer's input tensor map.
func DepthTensor(dm *depthmap.DepthMap) Tensors {
	data := make([]float32, len(dm.Data()))
	for i, v := range dm.Data() {
		data[i] = float32(v)
	}
	t := tensor.New(tensor.WithShape(dm.Height(), dm.Width()), tensor.WithBacking(data))
	return Tensors{InputTensorName: t}
}
