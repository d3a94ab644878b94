package framesystem

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/grasp/spatialmath"
)

func TestStaticTransform(t *testing.T) {
	pose := spatialmath.NewPose(
		r3.Vector{X: 0.1, Y: 0, Z: 0.5},
		&spatialmath.EulerAngles{Roll: 3.14159},
	)
	s := NewStatic(pose)

	got, err := s.Transform(context.Background(), "base", "camera")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(got, pose, 1e-9), test.ShouldBeTrue)

	// frame names do not matter to a static provider
	got2, err := s.Transform(context.Background(), "other", "frames")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(got2, pose, 1e-9), test.ShouldBeTrue)
}

func TestStaticTransformNilPose(t *testing.T) {
	s := NewStatic(nil)
	got, err := s.Transform(context.Background(), "base", "camera")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(got, spatialmath.NewZeroPose(), 1e-9), test.ShouldBeTrue)
}
