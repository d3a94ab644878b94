// Package projection turns cropped depth grids into 3D points in the robot's
// base frame using a pinhole camera model.
package projection

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have usable intrinsic parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to project between a
// 3D scene and the 2D image plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewIntrinsicsFromMatrix builds intrinsics from a row-major 3x3 camera
// matrix [fx 0 cx; 0 fy cy; 0 0 1] plus the source image dimensions.
func NewIntrinsicsFromMatrix(values []float64, width, height int) (*PinholeCameraIntrinsics, error) {
	if len(values) != 9 {
		return nil, errors.Errorf("camera matrix needs 9 values, got %d", len(values))
	}
	params := &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     values[0],
		Fy:     values[4],
		Ppx:    values[2],
		Ppy:    values[5],
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params, nil
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera
// frame. The intrinsics should be the ones of the sensor that produced the
// image containing the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// PointToPixel projects a 3D point in the camera frame to a pixel in the
// image plane.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		xPx := math.Round((x/z)*params.Fx + params.Ppx)
		yPx := math.Round((y/z)*params.Fy + params.Ppy)
		return xPx, yPx
	}
	// a point at zero depth projects nowhere; return coordinates that bounds
	// checks will filter out
	return -1.0, -1.0
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}
