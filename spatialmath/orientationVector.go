package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/grasp/utils"
)

const angleEpsilon = 1e-4 // radians

// OrientationVector containing ox, oy, oz, theta represents an orientation in
// the form of a unit vector pointing where the z axis of an object ends up,
// plus a rotation theta (in radians) about that axis. This is the orientation
// parameterization used on the robot API wire.
type OrientationVector struct {
	Theta float64 `json:"th"`
	OX    float64 `json:"x"`
	OY    float64 `json:"y"`
	OZ    float64 `json:"z"`
}

// OrientationVectorDegrees is the orientation vector between two objects, but
// expressed in degrees rather than radians. Because protobuf is in degrees.
type OrientationVectorDegrees struct {
	Theta float64 `json:"th"`
	OX    float64 `json:"x"`
	OY    float64 `json:"y"`
	OZ    float64 `json:"z"`
}

// NewOrientationVector returns an orientation vector which signifies no rotation.
func NewOrientationVector() *OrientationVector {
	return &OrientationVector{Theta: 0, OX: 0, OY: 0, OZ: 1}
}

// Normalize scales the direction components of the orientation vector to be on
// the unit sphere. A zero-length direction is treated as +Z, the wire's zero
// value.
func (ov *OrientationVector) Normalize() {
	norm := math.Sqrt(ov.OX*ov.OX + ov.OY*ov.OY + ov.OZ*ov.OZ)
	if norm == 0 {
		ov.OZ = 1
		return
	}
	ov.OX /= norm
	ov.OY /= norm
	ov.OZ /= norm
}

// ToQuat converts an orientation vector to a quaternion.
func (ov *OrientationVector) ToQuat() quat.Number {
	ov.Normalize()

	// acos(oz) ranges from 0 (north pole) to pi (south pole)
	lat := math.Acos(math.Max(-1, math.Min(1, ov.OZ)))
	lon := 0.0
	theta := ov.Theta

	// If we are pointing at either pole, lon can be 0.
	// atan(x/y) drops sign information so use atan2 instead.
	if 1-math.Abs(ov.OZ) > angleEpsilon {
		lon = math.Atan2(ov.OY, ov.OX)
	}

	// convert the angles as a zyz euler rotation Rz(lon)Ry(lat)Rz(theta)
	s := [3]float64{math.Sin(lon / 2), math.Sin(lat / 2), math.Sin(theta / 2)}
	c := [3]float64{math.Cos(lon / 2), math.Cos(lat / 2), math.Cos(theta / 2)}

	q := quat.Number{
		Real: c[0]*c[1]*c[2] - s[0]*c[1]*s[2],
		Imag: c[0]*s[1]*s[2] - s[0]*s[1]*c[2],
		Jmag: c[0]*s[1]*c[2] + s[0]*s[1]*s[2],
		Kmag: s[0]*c[1]*c[2] + c[0]*c[1]*s[2],
	}
	return Normalize(q)
}

// Quaternion returns orientation in quaternion representation.
func (ov *OrientationVector) Quaternion() quat.Number {
	return ov.ToQuat()
}

// EulerAngles returns orientation in Euler angle representation.
func (ov *OrientationVector) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(ov.ToQuat())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ov *OrientationVector) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ov.ToQuat())
}

// Radians converts a degrees orientation vector to its radians representation.
func (ovd *OrientationVectorDegrees) Radians() *OrientationVector {
	return &OrientationVector{
		Theta: utils.DegToRad(ovd.Theta),
		OX:    ovd.OX,
		OY:    ovd.OY,
		OZ:    ovd.OZ,
	}
}

// Quaternion returns orientation in quaternion representation.
func (ovd *OrientationVectorDegrees) Quaternion() quat.Number {
	return ovd.Radians().ToQuat()
}

// EulerAngles returns orientation in Euler angle representation.
func (ovd *OrientationVectorDegrees) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(ovd.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ovd *OrientationVectorDegrees) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ovd.Quaternion())
}
