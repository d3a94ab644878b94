package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are three angles used to represent the rotation of an object in
// 3D Euclidean space. The Tait-Bryan angle formalism is used, with rotation
// order z-y'-x'' (intrinsic) which is equivalent to x-y-z about the static
// axes, matching the usual roll-pitch-yaw aircraft convention.
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // rotation about the x axis
	Pitch float64 `json:"pitch"` // rotation about the y axis
	Yaw   float64 `json:"yaw"`   // rotation about the z axis
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	q := quat.Number{}

	cy := math.Cos(ea.Yaw * 0.5)
	sy := math.Sin(ea.Yaw * 0.5)
	cp := math.Cos(ea.Pitch * 0.5)
	sp := math.Sin(ea.Pitch * 0.5)
	cr := math.Cos(ea.Roll * 0.5)
	sr := math.Sin(ea.Roll * 0.5)

	q.Real = cr*cp*cy + sr*sp*sy
	q.Imag = sr*cp*cy - cr*sp*sy
	q.Jmag = cr*sp*cy + sr*cp*sy
	q.Kmag = cr*cp*sy - sr*sp*cy

	return q
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ea.Quaternion())
}

// WrapToHalfPi wraps an angle into [-pi/2, pi/2), the symmetric range of a
// two-jaw gripper yaw. Angles that differ by pi describe the same grasp.
func WrapToHalfPi(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi/2, math.Pi)
	if wrapped < 0 {
		wrapped += math.Pi
	}
	return wrapped - math.Pi/2
}
