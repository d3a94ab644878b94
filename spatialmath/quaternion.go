package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// quaternion is an orientation in quaternion representation.
type quaternion quat.Number

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// Normalize a quaternion, returning its versor (unit quaternion).
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if math.Abs(length-1.0) < 1e-10 {
		return q
	}
	if length == 0 {
		return quat.Number{Real: 1}
	}
	if length == math.Inf(1) {
		length = float64(math.MaxFloat64)
	}
	return quat.Number{q.Real / length, q.Imag / length, q.Jmag / length, q.Kmag / length}
}

// QuatToRotationMatrix converts a quat to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	mat := [9]float64{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	}
	return &RotationMatrix{mat}
}

// QuatToEulerAngles converts a quat to the euler angle representation. Algorithm from Wikipedia.
// https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	angles := EulerAngles{}

	// roll (x-axis rotation)
	sinrCosp := 2 * (q.Real*q.Imag + q.Jmag*q.Kmag)
	cosrCosp := 1 - 2*(q.Imag*q.Imag+q.Jmag*q.Jmag)
	angles.Roll = math.Atan2(sinrCosp, cosrCosp)

	// pitch (y-axis rotation)
	sinp := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	if math.Abs(sinp) >= 1 {
		angles.Pitch = math.Copysign(math.Pi/2., sinp) // use 90 degrees if out of range
	} else {
		angles.Pitch = math.Asin(sinp)
	}

	// yaw (z-axis rotation)
	sinyCosp := 2 * (q.Real*q.Kmag + q.Imag*q.Jmag)
	cosyCosp := 1 - 2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag)
	angles.Yaw = math.Atan2(sinyCosp, cosyCosp)

	return &angles
}

// rotateVector rotates a vector by the rotation the given quaternion represents.
func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{0, v.X, v.Y, v.Z}
	rotated := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{rotated.Imag, rotated.Jmag, rotated.Kmag}
}
