// Package inject provides dependency-injected pipeline collaborators for
// testing.
package inject

import (
	"context"

	"go.viam.com/grasp/inference"
)

// Scorer is an injected scorer.
type Scorer struct {
	inference.Scorer
	InferFunc func(ctx context.Context, ts inference.Tensors) (inference.Tensors, error)
	CloseFunc func(ctx context.Context) error
}

// Infer calls the injected Infer or the real version.
func (s *Scorer) Infer(ctx context.Context, ts inference.Tensors) (inference.Tensors, error) {
	if s.InferFunc == nil {
		return s.Scorer.Infer(ctx, ts)
	}
	return s.InferFunc(ctx, ts)
}

// Close calls the injected Close or the real version.
func (s *Scorer) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Scorer == nil {
			return nil
		}
		return s.Scorer.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
