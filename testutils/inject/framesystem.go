package inject

import (
	"context"

	"go.viam.com/grasp/framesystem"
	"go.viam.com/grasp/spatialmath"
)

// FrameProvider is an injected frame provider.
type FrameProvider struct {
	framesystem.Provider
	TransformFunc func(ctx context.Context, dst, src string) (spatialmath.Pose, error)
}

// Transform calls the injected Transform or the real version.
func (f *FrameProvider) Transform(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
	if f.TransformFunc == nil {
		return f.Provider.Transform(ctx, dst, src)
	}
	return f.TransformFunc(ctx, dst, src)
}
