// Package server exposes the grasp pipeline as a gRPC mlmodel service:
// callers send named input tensors and get grasp poses back as named output
// tensors.
package server

import (
	"context"

	"github.com/edaniels/golog"
	"go.opencensus.io/trace"
	pb "go.viam.com/api/service/mlmodel/v1"

	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/pipeline"
)

// Planner is the part of the pipeline the server needs.
type Planner interface {
	Plan(ctx context.Context, req pipeline.Request) ([]pipeline.Grasp, error)
}

// graspServer implements the MLModelService from mlmodel.proto.
type graspServer struct {
	pb.UnimplementedMLModelServiceServer
	planner Planner
	logger  golog.Logger
}

// NewServer constructs a grasp gRPC service server around a planner.
func NewServer(planner Planner, logger golog.Logger) pb.MLModelServiceServer {
	return &graspServer{planner: planner, logger: logger}
}

// Infer decodes the request tensors, plans grasps, and encodes one grasp per
// detection into the output tensors.
func (s *graspServer) Infer(ctx context.Context, req *pb.InferRequest) (*pb.InferResponse, error) {
	ctx, span := trace.StartSpan(ctx, "server::Infer")
	defer span.End()

	ts, err := inference.ProtoToTensors(req.InputTensors)
	if err != nil {
		return nil, err
	}
	preq, err := requestFromTensors(ts)
	if err != nil {
		return nil, err
	}
	grasps, err := s.planner.Plan(ctx, preq)
	if err != nil {
		return nil, err
	}
	out, err := inference.TensorsToProto(graspsToTensors(grasps))
	if err != nil {
		return nil, err
	}
	return &pb.InferResponse{OutputTensors: out}, nil
}

// Metadata reports the tensor contract so generic mlmodel clients can
// discover how to talk to this service.
func (s *graspServer) Metadata(ctx context.Context, req *pb.MetadataRequest) (*pb.MetadataResponse, error) {
	return &pb.MetadataResponse{Metadata: serviceMetadata()}, nil
}

func serviceMetadata() *pb.Metadata {
	return &pb.Metadata{
		Name:        "grasp-pose-estimator",
		Type:        "grasp_estimator",
		Description: "plans grasp poses in the robot base frame from a depth image and optional detections",
		InputInfo: []*pb.TensorInfo{
			{
				Name:        DepthTensorName,
				Description: "depth image, HxW, float32/float64 meters or uint16 millimeters (0 means missing)",
				DataType:    "float32",
				Shape:       []int32{-1, -1},
			},
			{
				Name:        IntrinsicsTensorName,
				Description: "optional pinhole intrinsics [fx 0 ppx; 0 fy ppy; 0 0 1], 3x3 or 9 values",
				DataType:    "float64",
				Shape:       []int32{3, 3},
			},
			{
				Name:        MasksTensorName,
				Description: "optional detection masks, NxHxW, nonzero marks the region",
				DataType:    "uint8",
				Shape:       []int32{-1, -1, -1},
			},
			{
				Name:        BoxesTensorName,
				Description: "optional detection boxes, Nx4 [x0 y0 x1 y1] in source pixels",
				DataType:    "int32",
				Shape:       []int32{-1, 4},
			},
		},
		OutputInfo: []*pb.TensorInfo{
			{
				Name:        PositionTensorName,
				Description: "grasp position per detection, Nx3 meters in the base frame",
				DataType:    "float64",
				Shape:       []int32{-1, 3},
			},
			{
				Name:        OrientationTensorName,
				Description: "grasp orientation per detection, Nx4 quaternion xyzw",
				DataType:    "float64",
				Shape:       []int32{-1, 4},
			},
			{
				Name:        WidthTensorName,
				Description: "gripper opening per detection, meters",
				DataType:    "float64",
				Shape:       []int32{-1},
			},
			{
				Name:        QualityTensorName,
				Description: "scorer confidence per detection",
				DataType:    "float64",
				Shape:       []int32{-1},
			},
		},
	}
}
