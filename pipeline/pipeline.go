// Package pipeline orchestrates a single grasp request: prepare the depth
// image, resolve the camera pose, run the scorer, then select and assemble
// one grasp pose per detection, all in the robot's base frame.
package pipeline

import (
	"context"
	"image"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/grasp/config"
	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/framesystem"
	"go.viam.com/grasp/heatmap"
	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/projection"
	"go.viam.com/grasp/spatialmath"
)

// Detection restricts where a grasp may be selected. The box and mask are in
// source image coordinates. A nil mask with a non-empty box means the box
// itself is the region; a nil mask with an empty box means the whole frame.
type Detection struct {
	Box  image.Rectangle
	Mask *depthmap.Mask
}

// Request carries everything a single grasp estimate needs. Intrinsics are
// optional when the configuration already has them; request intrinsics win
// when both are present.
type Request struct {
	Depth      *depthmap.DepthMap
	Intrinsics *projection.PinholeCameraIntrinsics
	Detections []Detection
}

// Grasp is one selected grasp in the robot's base frame.
type Grasp struct {
	Pose spatialmath.Pose
	// Frame is the name of the frame the pose is expressed in, always the
	// configured base frame.
	Frame string
	// Width is the gripper opening in meters.
	Width float64
	// Quality is the scorer's confidence at the selected pixel.
	Quality float64
}

// Pipeline plans grasps. It holds no per-request state, so one Pipeline may
// serve concurrent Plan calls.
type Pipeline struct {
	scorer inference.Scorer
	frames framesystem.Provider
	cfg    *config.Config
	logger golog.Logger
}

// New validates the collaborators and returns a Pipeline.
func New(
	scorer inference.Scorer,
	frames framesystem.Provider,
	cfg *config.Config,
	logger golog.Logger,
) (*Pipeline, error) {
	if scorer == nil {
		return nil, errors.New("pipeline needs a scorer")
	}
	if frames == nil {
		return nil, errors.New("pipeline needs a frame provider")
	}
	if cfg == nil {
		return nil, errors.New("pipeline needs a config")
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, errors.New("pipeline needs a logger")
	}
	return &Pipeline{scorer: scorer, frames: frames, cfg: cfg, logger: logger}, nil
}

// Plan runs the full estimate for one request and returns one grasp per
// detection, in input order. All state lives on this call's stack; errors
// fail the whole request and name the stage that died.
func (p *Pipeline) Plan(ctx context.Context, req Request) ([]Grasp, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::Plan")
	defer span.End()

	st := stateReceived
	advance := func(next state) {
		st = next
		span.Annotate(nil, st.String())
		p.logger.Debugw("grasp request advanced", "state", st.String())
	}
	fail := func(err error) error {
		p.logger.Debugw("grasp request failed", "state", st.String(), "error", err)
		span.Annotate(nil, "Failed")
		return errors.Wrapf(err, "grasp request failed in state %q", st.String())
	}

	advance(stateReceived)
	if req.Depth == nil {
		return nil, fail(errors.New("request has no depth image"))
	}
	intrinsics := req.Intrinsics
	if intrinsics == nil {
		intrinsics = p.cfg.Intrinsics
	}
	if intrinsics == nil {
		return nil, fail(projection.NewNoIntrinsicsError("neither request nor config supplies them"))
	}
	geom := p.cfg.Geometry()

	cropped, holes, err := p.prepareDepth(ctx, req.Depth, geom)
	if err != nil {
		return nil, fail(err)
	}
	advance(stateDepthPrepared)

	camPose, err := p.frames.Transform(ctx, p.cfg.BaseFrame, p.cfg.CameraFrame)
	if err != nil {
		return nil, fail(err)
	}
	advance(stateFrameResolved)

	advance(stateInferenceRequested)
	maps, err := p.runScorer(ctx, req.Depth, geom)
	if err != nil {
		return nil, fail(err)
	}
	advance(stateInferenceReceived)

	grid, err := projection.ProjectGrid(cropped, geom, intrinsics, camPose)
	if err != nil {
		return nil, fail(err)
	}

	advance(stateSelecting)
	detections := req.Detections
	if !p.cfg.MultiDetection || len(detections) == 0 {
		detections = []Detection{{}}
	}
	grasps := make([]Grasp, 0, len(detections))
	var chosen []int
	for i, det := range detections {
		sel, err := p.selectionGrid(det, geom)
		if err != nil {
			return nil, fail(errors.Wrapf(err, "detection %d", i))
		}
		idx, _, err := heatmap.SelectBest(maps, sel, holes)
		if err != nil {
			return nil, fail(errors.Wrapf(err, "detection %d", i))
		}
		grasps = append(grasps, p.assemble(maps, grid, cropped, camPose, idx))
		chosen = append(chosen, idx)
	}
	advance(stateAssembled)

	if p.cfg.DebugDir != "" {
		if err := p.writeDebugArt(maps, chosen); err != nil {
			p.logger.Warnw("cannot write debug art", "error", err)
		}
	}

	advance(stateResponded)
	return grasps, nil
}

func (p *Pipeline) prepareDepth(
	ctx context.Context, depth *depthmap.DepthMap, geom depthmap.CropGeometry,
) (*depthmap.DepthMap, *depthmap.Mask, error) {
	_, span := trace.StartSpan(ctx, "pipeline::prepareDepth")
	defer span.End()
	return depthmap.CropAndRepair(depth, geom)
}

// runScorer sends the raw, uncropped depth image to the network. The scorer
// does its own cropping to match its training input; the returned heat maps
// must line up with our own crop of the same frame.
func (p *Pipeline) runScorer(
	ctx context.Context, depth *depthmap.DepthMap, geom depthmap.CropGeometry,
) (*heatmap.Maps, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline::runScorer")
	defer span.End()

	out, err := p.scorer.Infer(ctx, inference.DepthTensor(depth))
	if err != nil {
		return nil, err
	}
	maps, err := heatmap.FromTensors(out)
	if err != nil {
		return nil, err
	}
	rows, cols := maps.Dims()
	if rows != geom.OutputSize || cols != geom.OutputSize {
		return nil, errors.Wrapf(inference.ErrInferenceService,
			"heat maps are %dx%d, crop geometry expects %dx%d", rows, cols, geom.OutputSize, geom.OutputSize)
	}
	maps.Smooth(p.cfg.QualityBlurSigma)
	return maps, nil
}

// selectionGrid turns a detection into the float weighting grid SelectBest
// expects, or nil when the whole frame is eligible.
func (p *Pipeline) selectionGrid(det Detection, geom depthmap.CropGeometry) (*mat.Dense, error) {
	mask := det.Mask
	if mask == nil {
		if det.Box.Empty() {
			return nil, nil
		}
		mask = depthmap.NewMaskFromRect(geom.ImageWidth, geom.ImageHeight, det.Box)
	}
	return depthmap.CropMask(mask, geom)
}

// assemble converts a selected pixel into a grasp pose in the base frame.
func (p *Pipeline) assemble(
	maps *heatmap.Maps,
	grid *projection.PointGrid,
	cropped *depthmap.DepthMap,
	camPose spatialmath.Pose,
	idx int,
) Grasp {
	px := maps.Pixel(idx)

	// the camera may be mounted rotated about its optical axis; asin of the
	// rotation matrix entry recovers that roll so it can be taken back out
	// of the predicted angle
	rm := camPose.Orientation().RotationMatrix()
	camRoll := math.Asin(rm.At(1, 0))
	theta := spatialmath.WrapToHalfPi(maps.AngleAt(idx) - camRoll)

	// roll pi points the gripper down at the surface, yaw sets the jaw line
	orientation := &spatialmath.EulerAngles{Roll: math.Pi, Pitch: 0, Yaw: theta - math.Pi/2}

	depthAt := cropped.At(px.X, px.Y)
	width := projection.WidthToMeters(maps.WidthAt(idx), depthAt, p.cfg.Geometry(), p.cfg.FOVDegrees)

	return Grasp{
		Pose:    spatialmath.NewPose(grid.At(idx), orientation),
		Frame:   p.cfg.BaseFrame,
		Width:   width,
		Quality: maps.QualityAt(idx),
	}
}
