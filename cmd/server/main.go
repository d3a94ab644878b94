// Package main runs the grasp pose estimation service as a standalone gRPC
// server.
package main

import (
	"context"
	"net"

	"github.com/edaniels/golog"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	pb "go.viam.com/api/service/mlmodel/v1"
	"go.viam.com/utils"
	"go.viam.com/utils/perf"
	"google.golang.org/grpc"

	"go.viam.com/grasp/config"
	"go.viam.com/grasp/framesystem"
	"go.viam.com/grasp/inference"
	"go.viam.com/grasp/pipeline"
	"go.viam.com/grasp/server"
)

var logger = golog.NewDevelopmentLogger("grasp-server")

// Arguments for the command line.
type Arguments struct {
	ConfigFile string `flag:"0,required,usage=service config file"`
	Debug      bool   `flag:"debug,usage=log trace spans"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		exp := perf.NewNiceLoggingSpanExporter()
		trace.RegisterExporter(exp)
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	}

	cfg, err := config.Read(argsParsed.ConfigFile)
	if err != nil {
		return err
	}
	return runServer(ctx, cfg, logger)
}

func runServer(ctx context.Context, cfg *config.Config, logger golog.Logger) (err error) {
	frames, closeFrames, err := newFrameProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeFrames())
	}()

	scorer, err := inference.NewClient(ctx, cfg.Model.Address, inference.ClientOptions{
		ModelName: cfg.Model.Name,
		Timeout:   cfg.Model.Timeout(),
		Insecure:  cfg.Model.Insecure,
		Extra:     cfg.Model.Extra,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, scorer.Close(ctx))
	}()

	p, err := pipeline.New(scorer, frames, cfg, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return err
	}
	rpcServer := grpc.NewServer()
	pb.RegisterMLModelServiceServer(rpcServer, server.NewServer(p, logger))

	utils.PanicCapturingGo(func() {
		<-ctx.Done()
		rpcServer.GracefulStop()
	})
	logger.Infow("serving grasp poses",
		"address", listener.Addr().String(),
		"model", cfg.Model.Name,
		"base_frame", cfg.BaseFrame,
		"camera_frame", cfg.CameraFrame,
	)
	return rpcServer.Serve(listener)
}

// newFrameProvider picks the configured camera pose source: a fixed pose from
// the config file or a live robot frame system.
func newFrameProvider(
	ctx context.Context, cfg *config.Config, logger golog.Logger,
) (framesystem.Provider, func() error, error) {
	if cfg.StaticCameraPose != nil {
		logger.Debugw("using a static camera pose")
		return framesystem.NewStatic(cfg.StaticCameraPose.Pose()), func() error { return nil }, nil
	}
	client, err := framesystem.NewClient(ctx, cfg.Robot.Address, framesystem.ClientOptions{
		Timeout:  cfg.Robot.Timeout(),
		Insecure: cfg.Robot.Insecure,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debugw("using the robot frame system", "address", cfg.Robot.Address)
	return client, func() error { return client.Close(ctx) }, nil
}
