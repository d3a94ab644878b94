package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	commonpb "go.viam.com/api/common/v1"
	"go.viam.com/test"
)

func TestPoseConstruction(t *testing.T) {
	zero := NewZeroPose()
	test.That(t, zero.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, OrientationAlmostEqual(zero.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)

	pt := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, NewPoseFromPoint(pt).Point(), test.ShouldResemble, pt)
	test.That(t, NewPose(pt, nil).Orientation(), test.ShouldNotBeNil)
}

func TestTransformPoint(t *testing.T) {
	// pure translation
	shift := NewPoseFromPoint(r3.Vector{X: 1, Y: 0, Z: 0.5})
	moved := TransformPoint(shift, r3.Vector{X: 0, Y: 2, Z: 0})
	test.That(t, moved.X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, moved.Y, test.ShouldAlmostEqual, 2, 1e-9)
	test.That(t, moved.Z, test.ShouldAlmostEqual, 0.5, 1e-9)

	// quarter turn about z maps +X to +Y
	quarter := NewPoseFromOrientation(&EulerAngles{Yaw: math.Pi / 2})
	turned := TransformPoint(quarter, r3.Vector{X: 1})
	test.That(t, turned.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, turned.Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, turned.Z, test.ShouldAlmostEqual, 0, 1e-9)

	// rotation applies before the offset
	both := NewPose(r3.Vector{X: 10}, &EulerAngles{Yaw: math.Pi / 2})
	combined := TransformPoint(both, r3.Vector{X: 1})
	test.That(t, combined.X, test.ShouldAlmostEqual, 10, 1e-9)
	test.That(t, combined.Y, test.ShouldAlmostEqual, 1, 1e-9)
}

func TestCompose(t *testing.T) {
	a := NewPose(r3.Vector{X: 1}, &EulerAngles{Yaw: math.Pi / 2})
	b := NewPose(r3.Vector{X: 1}, &EulerAngles{Yaw: -math.Pi / 2})
	c := Compose(a, b)
	// b's offset is rotated into a's frame
	test.That(t, c.Point().X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, c.Point().Y, test.ShouldAlmostEqual, 1, 1e-9)
	// the yaws cancel
	test.That(t, OrientationAlmostEqual(c.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)

	// composing with the zero pose changes nothing
	test.That(t, PoseAlmostEqual(Compose(a, NewZeroPose()), a, 1e-9), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(NewZeroPose(), a), a, 1e-9), test.ShouldBeTrue)
}

func TestNewPoseFromProtobuf(t *testing.T) {
	pose := NewPoseFromProtobuf(&commonpb.Pose{X: 100, Y: -50, Z: 250, OZ: 1, Theta: 90})
	test.That(t, pose.Point(), test.ShouldResemble, r3.Vector{X: 100, Y: -50, Z: 250})
	expected := &EulerAngles{Yaw: math.Pi / 2}
	test.That(t, OrientationAlmostEqual(pose.Orientation(), expected), test.ShouldBeTrue)
}
