package pipeline

import (
	"context"
	"image"
	"math"
	"os"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gorgonia.org/tensor"

	"go.viam.com/grasp/config"
	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/framesystem"
	"go.viam.com/grasp/heatmap"
	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/projection"
	"go.viam.com/grasp/spatialmath"
	"go.viam.com/grasp/testutils/inject"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CropSize = 300
	cfg.OutputSize = 300
	cfg.Intrinsics = &projection.PinholeCameraIntrinsics{
		Width: 640, Height: 480, Fx: 300, Fy: 300, Ppx: 320, Ppy: 240,
	}
	cfg.StaticCameraPose = &config.StaticCameraPose{}
	cfg.Model = config.Model{Address: "localhost:8083", Name: "ggcnn"}
	return cfg
}

func flatDepth(t *testing.T, width, height int, val float64) *depthmap.DepthMap {
	t.Helper()
	data := make([]float64, width*height)
	for i := range data {
		data[i] = val
	}
	dm, err := depthmap.NewDepthMap(width, height, data)
	test.That(t, err, test.ShouldBeNil)
	return dm
}

// scorerMaps builds a well-formed scorer response: a quality grid plus
// constant angle and width grids of the same size.
func scorerMaps(size int, quality []float32, angleVal, widthVal float32) inference.Tensors {
	angle := make([]float32, size*size)
	width := make([]float32, size*size)
	for i := range angle {
		angle[i] = angleVal
		width[i] = widthVal
	}
	return inference.Tensors{
		heatmap.QualityTensorName: tensor.New(tensor.WithShape(size, size), tensor.WithBacking(quality)),
		heatmap.AngleTensorName:   tensor.New(tensor.WithShape(size, size), tensor.WithBacking(angle)),
		heatmap.WidthTensorName:   tensor.New(tensor.WithShape(size, size), tensor.WithBacking(width)),
	}
}

func constScorer(size int, quality []float32, angleVal, widthVal float32) *inject.Scorer {
	return &inject.Scorer{
		InferFunc: func(ctx context.Context, ts inference.Tensors) (inference.Tensors, error) {
			return scorerMaps(size, quality, angleVal, widthVal), nil
		},
	}
}

func identityFrames() *inject.FrameProvider {
	return &inject.FrameProvider{
		TransformFunc: func(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
			return spatialmath.NewZeroPose(), nil
		},
	}
}

func TestNewValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	scorer := constScorer(300, nil, 0, 0)
	frames := identityFrames()

	_, err := New(nil, frames, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(scorer, nil, cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(scorer, frames, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(scorer, frames, cfg, nil)
	test.That(t, err, test.ShouldNotBeNil)

	bad := testConfig()
	bad.Model.Name = ""
	_, err = New(scorer, frames, bad, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(scorer, frames, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
}

func TestPlanEndToEnd(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()

	quality := make([]float32, 300*300)
	quality[150*300+150] = 10
	p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	grasps, err := p.Plan(context.Background(), Request{Depth: flatDepth(t, 640, 480, 0.5)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(grasps), test.ShouldEqual, 1)

	g := grasps[0]
	test.That(t, g.Frame, test.ShouldEqual, "base")
	test.That(t, g.Quality, test.ShouldAlmostEqual, 10, 1e-6)

	// the peak sits at the crop center, straight down the optical axis
	pt := g.Pose.Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, 0.01)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 0.01)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0.5, 1e-9)

	// width_px 50 through the fov formula at 0.5m
	test.That(t, g.Width, test.ShouldAlmostEqual, 0.0622105, 1e-6)

	// angle 0, identity camera: gripper faces down, jaw line at -pi/2
	want := &spatialmath.EulerAngles{Roll: math.Pi, Pitch: 0, Yaw: -math.Pi / 2}
	test.That(t, spatialmath.OrientationAlmostEqual(g.Pose.Orientation(), want), test.ShouldBeTrue)
}

func TestPlanExcludesRepairedHoles(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()

	// the global peak lands on a repaired hole, so the runner-up wins
	depth := flatDepth(t, 640, 480, 0.5)
	depth.Set(320, 240, math.NaN())
	quality := make([]float32, 300*300)
	quality[150*300+150] = 10
	quality[100*300+100] = 5

	p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	grasps, err := p.Plan(context.Background(), Request{Depth: depth})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(grasps), test.ShouldEqual, 1)
	test.That(t, grasps[0].Quality, test.ShouldAlmostEqual, 5, 1e-6)

	pt := grasps[0].Pose.Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, -0.0827759, 1e-6)
	test.That(t, pt.Y, test.ShouldAlmostEqual, -0.0827759, 1e-6)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestPlanMultipleDetections(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()

	quality := make([]float32, 300*300)
	quality[50*300+50] = 9
	quality[200*300+200] = 8
	p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// detection one is a bare box around the weaker peak, detection two a
	// mask around the stronger one; results come back in input order
	req := Request{
		Depth: flatDepth(t, 640, 480, 0.5),
		Detections: []Detection{
			{Box: image.Rect(350, 270, 400, 320)},
			{Mask: depthmap.NewMaskFromRect(640, 480, image.Rect(200, 120, 240, 160))},
		},
	}
	grasps, err := p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(grasps), test.ShouldEqual, 2)
	test.That(t, grasps[0].Quality, test.ShouldAlmostEqual, 8, 1e-6)
	test.That(t, grasps[1].Quality, test.ShouldAlmostEqual, 9, 1e-6)
}

func TestPlanSingleDetectionMode(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	cfg.MultiDetection = false

	quality := make([]float32, 300*300)
	quality[50*300+50] = 9
	quality[200*300+200] = 8
	p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// detections are ignored, one full-frame grasp at the global peak
	req := Request{
		Depth: flatDepth(t, 640, 480, 0.5),
		Detections: []Detection{
			{Box: image.Rect(350, 270, 400, 320)},
		},
	}
	grasps, err := p.Plan(context.Background(), req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(grasps), test.ShouldEqual, 1)
	test.That(t, grasps[0].Quality, test.ShouldAlmostEqual, 9, 1e-6)
}

func TestPlanCameraRollCorrection(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()

	quality := make([]float32, 300*300)
	quality[150*300+150] = 1
	frames := &inject.FrameProvider{
		TransformFunc: func(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
			return spatialmath.NewPoseFromOrientation(&spatialmath.EulerAngles{Yaw: 0.3}), nil
		},
	}
	p, err := New(constScorer(300, quality, 0.5, 50), frames, cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	grasps, err := p.Plan(context.Background(), Request{Depth: flatDepth(t, 640, 480, 0.5)})
	test.That(t, err, test.ShouldBeNil)

	// predicted angle 0.5 minus camera roll 0.3, then shifted onto the jaw line
	want := &spatialmath.EulerAngles{Roll: math.Pi, Pitch: 0, Yaw: 0.2 - math.Pi/2}
	test.That(t, spatialmath.OrientationAlmostEqual(grasps[0].Pose.Orientation(), want), test.ShouldBeTrue)
}

func TestPlanFailures(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ctx := context.Background()
	depth := func() *depthmap.DepthMap { return flatDepth(t, 640, 480, 0.5) }

	quality := make([]float32, 300*300)
	quality[0] = 1

	t.Run("no depth", func(t *testing.T) {
		p, err := New(constScorer(300, quality, 0, 50), identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "Received")
	})

	t.Run("no intrinsics", func(t *testing.T) {
		cfg := testConfig()
		cfg.Intrinsics = nil
		p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, projection.ErrNoIntrinsics), test.ShouldBeTrue)
	})

	t.Run("depth size mismatch", func(t *testing.T) {
		p, err := New(constScorer(300, quality, 0, 50), identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: flatDepth(t, 100, 100, 0.5)})
		test.That(t, errors.Is(err, depthmap.ErrOutOfBounds), test.ShouldBeTrue)
	})

	t.Run("frame resolution", func(t *testing.T) {
		frames := &inject.FrameProvider{
			TransformFunc: func(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
				return nil, errors.Wrap(framesystem.ErrFrameResolution, "lookup timed out")
			},
		}
		p, err := New(constScorer(300, quality, 0, 50), frames, testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, framesystem.ErrFrameResolution), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "DepthPrepared")
	})

	t.Run("scorer failure", func(t *testing.T) {
		scorer := &inject.Scorer{
			InferFunc: func(ctx context.Context, ts inference.Tensors) (inference.Tensors, error) {
				return nil, errors.Wrap(inference.ErrInferenceService, "connection refused")
			},
		}
		p, err := New(scorer, identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, inference.ErrInferenceService), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "InferenceRequested")
	})

	t.Run("missing heat map", func(t *testing.T) {
		scorer := &inject.Scorer{
			InferFunc: func(ctx context.Context, ts inference.Tensors) (inference.Tensors, error) {
				out := scorerMaps(300, quality, 0, 50)
				delete(out, heatmap.WidthTensorName)
				return out, nil
			},
		}
		p, err := New(scorer, identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, heatmap.ErrMissingTensor), test.ShouldBeTrue)
	})

	t.Run("wrong heat map size", func(t *testing.T) {
		scorer := &inject.Scorer{
			InferFunc: func(ctx context.Context, ts inference.Tensors) (inference.Tensors, error) {
				q := make([]float32, 100*100)
				q[0] = 1
				return scorerMaps(100, q, 0, 50), nil
			},
		}
		p, err := New(scorer, identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, inference.ErrInferenceService), test.ShouldBeTrue)
	})

	t.Run("no valid pixel", func(t *testing.T) {
		p, err := New(constScorer(300, make([]float32, 300*300), 0, 50), identityFrames(), testConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = p.Plan(ctx, Request{Depth: depth()})
		test.That(t, errors.Is(err, heatmap.ErrNoValidPixel), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "Selecting")
	})
}

func TestPlanWritesDebugArt(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := testConfig()
	cfg.DebugDir = t.TempDir()

	quality := make([]float32, 300*300)
	quality[150*300+150] = 10
	p, err := New(constScorer(300, quality, 0, 50), identityFrames(), cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = p.Plan(context.Background(), Request{Depth: flatDepth(t, 640, 480, 0.5)})
	test.That(t, err, test.ShouldBeNil)

	entries, err := os.ReadDir(cfg.DebugDir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 1)
}
