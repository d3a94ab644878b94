package inference

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	pb "go.viam.com/api/service/mlmodel/v1"
	"go.viam.com/utils/protoutils"
	"go.viam.com/utils/rpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultInferTimeout bounds a single Infer call when the configuration does
// not set one.
const DefaultInferTimeout = 10 * time.Second

// ClientOptions configure a remote scorer connection.
type ClientOptions struct {
	// ModelName is the name the mlmodel service knows the grasp network by.
	ModelName string
	// Timeout bounds each Infer call. Zero means DefaultInferTimeout.
	Timeout time.Duration
	// Insecure dials without TLS.
	Insecure bool
	// Extra is forwarded with every request.
	Extra map[string]interface{}
}

// Client is a Scorer backed by a remote mlmodel service.
type Client struct {
	conn      rpc.ClientConn
	client    pb.MLModelServiceClient
	modelName string
	timeout   time.Duration
	extra     *structpb.Struct
	logger    golog.Logger
}

// NewClient dials the mlmodel service at address and returns a Scorer that
// runs the named model remotely.
func NewClient(ctx context.Context, address string, opts ClientOptions, logger golog.Logger) (*Client, error) {
	if opts.ModelName == "" {
		return nil, errors.New("model name cannot be empty")
	}
	var dialOpts []rpc.DialOption
	if opts.Insecure {
		dialOpts = append(dialOpts, rpc.WithInsecure())
	}
	conn, err := rpc.Dial(ctx, address, logger, dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to dial mlmodel service %q", address)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultInferTimeout
	}
	var extra *structpb.Struct
	if len(opts.Extra) != 0 {
		extra, err = protoutils.StructToStructPb(opts.Extra)
		if err != nil {
			return nil, multierr.Combine(errors.Wrap(err, "unable to convert extra to proto struct"), conn.Close())
		}
	}
	return &Client{
		conn:      conn,
		client:    pb.NewMLModelServiceClient(conn),
		modelName: opts.ModelName,
		timeout:   timeout,
		extra:     extra,
		logger:    logger,
	}, nil
}

// Infer sends the tensors to the remote model and returns its outputs.
func (c *Client) Infer(ctx context.Context, tensors Tensors) (Tensors, error) {
	tensorProto, err := TensorsToProto(tensors)
	if err != nil {
		return nil, errors.Wrapf(ErrInferenceService, "%v", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Infer(ctx, &pb.InferRequest{
		Name:         c.modelName,
		InputTensors: tensorProto,
		Extra:        c.extra,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrInferenceService, "infer call to model %q failed: %v", c.modelName, err)
	}
	out, err := ProtoToTensors(resp.OutputTensors)
	if err != nil {
		return nil, errors.Wrapf(ErrInferenceService, "%v", err)
	}
	return out, nil
}

// Close tears down the connection to the mlmodel service.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Close()
}
