// Package framesystem resolves where the camera sits in the robot's frame
// tree at the moment a grasp request arrives.
package framesystem

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/grasp/spatialmath"
)

// ErrFrameResolution means the camera pose could not be resolved in the
// robot's frame tree, because the lookup failed or timed out.
var ErrFrameResolution = errors.New("cannot resolve camera frame")

// Provider supplies rigid transforms between frames a robot knows about.
// The returned pose is only valid for the instant it was sampled; callers
// must look it up again on every request.
type Provider interface {
	// Transform returns the pose of frame src expressed in frame dst.
	Transform(ctx context.Context, dst, src string) (spatialmath.Pose, error)
}

// Static is a Provider for cameras bolted to the robot at a known offset.
// It returns the same pose regardless of the frames asked about.
type Static struct {
	pose spatialmath.Pose
}

// NewStatic returns a Provider that always reports the given camera pose.
// A nil pose means the camera frame coincides with the base frame.
func NewStatic(pose spatialmath.Pose) *Static {
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	return &Static{pose: pose}
}

// Transform implements Provider.
func (s *Static) Transform(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
	return s.pose, nil
}
