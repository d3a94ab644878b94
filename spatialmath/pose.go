package spatialmath

import (
	"github.com/golang/geo/r3"
	commonpb "go.viam.com/api/common/v1"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/grasp/utils"
)

// Pose represents a 6dof pose, position and orientation, of an object or a
// frame of reference. The distance units of the position follow whatever the
// surrounding context uses; the grasp pipeline keeps positions in meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type basicPose struct {
	point       r3.Vector
	orientation Orientation
}

// Point returns the position of the pose.
func (bp *basicPose) Point() r3.Vector {
	return bp.point
}

// Orientation returns the orientation of the pose.
func (bp *basicPose) Orientation() Orientation {
	return bp.orientation
}

// NewZeroPose returns a pose at (0, 0, 0) with no rotation.
func NewZeroPose() Pose {
	return &basicPose{orientation: NewZeroOrientation()}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		o = NewZeroOrientation()
	}
	return &basicPose{point: p, orientation: o}
}

// NewPoseFromPoint takes in a position and returns a Pose with no rotation.
func NewPoseFromPoint(p r3.Vector) Pose {
	return &basicPose{point: p, orientation: NewZeroOrientation()}
}

// NewPoseFromOrientation takes in an orientation and returns a Pose at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	if o == nil {
		o = NewZeroOrientation()
	}
	return &basicPose{orientation: o}
}

// Compose treats Poses as functions A(x) and B(x) and produces a new function
// C(x) = A(B(x)), the same as if B were first applied, then A.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	q := quaternion(Normalize(quat.Mul(qa, b.Orientation().Quaternion())))
	return &basicPose{
		point:       a.Point().Add(rotateVector(qa, b.Point())),
		orientation: &q,
	}
}

// TransformPoint applies a pose to a point: the point is rotated by the pose's
// orientation and then offset by its position.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Point().Add(rotateVector(p.Orientation().Quaternion(), pt))
}

// PoseAlmostEqual checks whether both the position and orientation of two
// poses are within epsilon of one another.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	ptA, ptB := a.Point(), b.Point()
	if !utils.Float64AlmostEqual(ptA.X, ptB.X, epsilon) ||
		!utils.Float64AlmostEqual(ptA.Y, ptB.Y, epsilon) ||
		!utils.Float64AlmostEqual(ptA.Z, ptB.Z, epsilon) {
		return false
	}
	return QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// NewPoseFromProtobuf creates a new pose from a protobuf pose. Values carry
// over as-is: the robot API expresses translation in millimeters and the
// orientation as an orientation vector in degrees.
func NewPoseFromProtobuf(mpb *commonpb.Pose) Pose {
	return NewPose(
		r3.Vector{X: mpb.X, Y: mpb.Y, Z: mpb.Z},
		&OrientationVectorDegrees{Theta: mpb.Theta, OX: mpb.OX, OY: mpb.OY, OZ: mpb.OZ},
	)
}
