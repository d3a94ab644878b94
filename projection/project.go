package projection

import (
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/spatialmath"
	"go.viam.com/grasp/utils"
)

// PointGrid holds the 3D location of every cell of a cropped depth grid after
// back-projection, expressed in whatever frame the projection was given.
type PointGrid struct {
	rows int
	cols int
	pts  *mat.Dense // 3 x (rows*cols), one column per cell
}

// Dims returns the (rows, cols) geometry of the grid.
func (pg *PointGrid) Dims() (int, int) {
	return pg.rows, pg.cols
}

// At returns the point for the given row-major cell index.
func (pg *PointGrid) At(idx int) r3.Vector {
	return r3.Vector{X: pg.pts.At(0, idx), Y: pg.pts.At(1, idx), Z: pg.pts.At(2, idx)}
}

// AtPixel returns the point for the cell at column x, row y.
func (pg *PointGrid) AtPixel(x, y int) r3.Vector {
	return pg.At(y*pg.cols + x)
}

// ProjectGrid back-projects every cell of a repaired depth crop through the
// pinhole model and transforms the result into the frame camPose is expressed
// in. Pixel coordinates are recovered from the crop geometry: each output
// cell maps to an evenly spaced position across the source window, endpoints
// included. The heavy lifting is one 3xN matrix multiply.
func ProjectGrid(
	depth *depthmap.DepthMap,
	geom depthmap.CropGeometry,
	intrinsics *PinholeCameraIntrinsics,
	camPose spatialmath.Pose,
) (*PointGrid, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	rows, cols := geom.OutputSize, geom.OutputSize
	if depth.Width() != cols || depth.Height() != rows {
		return nil, errors.Errorf("depth is %dx%d, geometry expects %dx%d",
			depth.Width(), depth.Height(), cols, rows)
	}
	if cols < 2 {
		return nil, errors.Errorf("output size %d is too small to project", cols)
	}

	win := geom.Window()
	us := floats.Span(make([]float64, cols), float64(win.Min.X), float64(win.Min.X+geom.CropSize))
	vs := floats.Span(make([]float64, rows), float64(win.Min.Y), float64(win.Min.Y+geom.CropSize))

	// precompute (u-ppx)/fx and (v-ppy)/fy per column and row
	uCoef := make([]float64, cols)
	for j, u := range us {
		uCoef[j] = (u - intrinsics.Ppx) / intrinsics.Fx
	}
	vCoef := make([]float64, rows)
	for i, v := range vs {
		vCoef[i] = (v - intrinsics.Ppy) / intrinsics.Fy
	}

	n := rows * cols
	camData := make([]float64, 3*n)
	utils.ParallelForEachPixel(image.Point{X: cols, Y: rows}, func(x, y int) {
		z := depth.At(x, y)
		idx := y*cols + x
		camData[idx] = uCoef[x] * z
		camData[n+idx] = vCoef[y] * z
		camData[2*n+idx] = z
	})
	camPts := mat.NewDense(3, n, camData)

	rm := camPose.Orientation().RotationMatrix()
	rot := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rot.Set(r, c, rm.At(r, c))
		}
	}

	base := mat.NewDense(3, n, nil)
	base.Mul(rot, camPts)

	t := camPose.Point()
	raw := base.RawMatrix().Data
	floats.AddConst(t.X, raw[:n])
	floats.AddConst(t.Y, raw[n:2*n])
	floats.AddConst(t.Z, raw[2*n:])

	return &PointGrid{rows: rows, cols: cols, pts: base}, nil
}
