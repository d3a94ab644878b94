// Package spatialmath defines the math of poses and orientations in 3D
// Euclidean space as used by the grasp pipeline.
package spatialmath

import (
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/grasp/utils"
)

// Orientation is an interface used to express the different parameterizations
// of the orientation of a rigid object or a frame of reference in 3D space.
type Orientation interface {
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	RotationMatrix() *RotationMatrix
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations
// are approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual is an equality test for all the float components of a
// quaternion. Quaternions have double coverage (q and -q are the same
// orientation) and this takes that into account.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	eq := func(x, y float64) bool { return utils.Float64AlmostEqual(x, y, tol) }
	same := eq(a.Real, b.Real) && eq(a.Imag, b.Imag) && eq(a.Jmag, b.Jmag) && eq(a.Kmag, b.Kmag)
	flipped := eq(a.Real, -b.Real) && eq(a.Imag, -b.Imag) && eq(a.Jmag, -b.Jmag) && eq(a.Kmag, -b.Kmag)
	return same || flipped
}
