package framesystem

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	robotpb "go.viam.com/api/robot/v1"
	"go.viam.com/utils/rpc"

	"go.viam.com/grasp/spatialmath"
)

// DefaultLookupTimeout bounds a single transform lookup when the
// configuration does not set one. The robot base may be moving, so a stale
// answer is worse than a failed one.
const DefaultLookupTimeout = time.Second

// ClientOptions configure a robot frame system connection.
type ClientOptions struct {
	// Timeout bounds each Transform call. Zero means DefaultLookupTimeout.
	Timeout time.Duration
	// Insecure dials without TLS.
	Insecure bool
}

// Client is a Provider backed by a robot's gRPC frame system.
type Client struct {
	conn    rpc.ClientConn
	client  robotpb.RobotServiceClient
	timeout time.Duration
	logger  golog.Logger
}

// NewClient dials the robot at address and returns a Provider that resolves
// transforms against its live frame system.
func NewClient(ctx context.Context, address string, opts ClientOptions, logger golog.Logger) (*Client, error) {
	var dialOpts []rpc.DialOption
	if opts.Insecure {
		dialOpts = append(dialOpts, rpc.WithInsecure())
	}
	conn, err := rpc.Dial(ctx, address, logger, dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to dial robot %q", address)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Client{
		conn:    conn,
		client:  robotpb.NewRobotServiceClient(conn),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Transform implements Provider. It asks the robot where the origin of src
// currently sits in dst by transforming a zero pose, and fails rather than
// retries when the lookup cannot complete within the timeout.
func (c *Client) Transform(ctx context.Context, dst, src string) (spatialmath.Pose, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.TransformPose(ctx, &robotpb.TransformPoseRequest{
		Destination: dst,
		Source: &commonpb.PoseInFrame{
			ReferenceFrame: src,
			Pose:           &commonpb.Pose{OZ: 1, Theta: 0}, // zero pose
		},
	})
	if err != nil {
		return nil, errors.Wrapf(ErrFrameResolution, "transform of %q into %q failed: %v", src, dst, err)
	}
	if resp.Pose == nil || resp.Pose.Pose == nil {
		return nil, errors.Wrapf(ErrFrameResolution, "transform of %q into %q returned no pose", src, dst)
	}
	pose := spatialmath.NewPoseFromProtobuf(resp.Pose.Pose)
	// wire poses are in millimeters
	return spatialmath.NewPose(pose.Point().Mul(0.001), pose.Orientation()), nil
}

// Close tears down the connection to the robot.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Close()
}
