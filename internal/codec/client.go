package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/attrition-risk/internal/features"
)

// #region types
// Prediction holds the classifier output for one row.
type Prediction struct {
	Label       int     // predict(): 1 = attrition
	Probability float64 // predict_proba()[1]
}

// Explanation holds SHAP attributions for one row, aligned to its columns.
type Explanation struct {
	BaseValue    float64
	Attributions []float64
}

// #endregion types

// #region service-client
// ScoringServiceClient is the client API of attrition.v1.ScoringService.
type ScoringServiceClient interface {
	Predict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Explain(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type scoringServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewScoringServiceClient binds the service methods to a connection.
func NewScoringServiceClient(cc grpc.ClientConnInterface) ScoringServiceClient {
	return &scoringServiceClient{cc: cc}
}

func (c *scoringServiceClient) Predict(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, predictMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *scoringServiceClient) Explain(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, explainMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service-client

// #region client-struct
// ScoringClient wraps the gRPC connection to the Python scoring sidecar that
// holds the XGBoost model and its SHAP explainer.
type ScoringClient struct {
	conn   *grpc.ClientConn
	client ScoringServiceClient
}

// #endregion client-struct

// #region constructor
// NewScoringClient connects to the scoring sidecar. Extra dial options are
// appended after insecure transport credentials.
func NewScoringClient(addr string, opts ...grpc.DialOption) (*ScoringClient, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &ScoringClient{
		conn:   conn,
		client: NewScoringServiceClient(conn),
	}, nil
}

// NewScoringClientWithService creates a ScoringClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewScoringClientWithService(svc ScoringServiceClient) *ScoringClient {
	return &ScoringClient{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *ScoringClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region predict
// Predict asks the classifier for the label and positive-class probability of row.
func (c *ScoringClient) Predict(ctx context.Context, row features.Row) (Prediction, error) {
	req, err := EncodeRow(row.Columns(), row.Values())
	if err != nil {
		return Prediction{}, err
	}
	resp, err := c.client.Predict(ctx, req)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict rpc: %w", err)
	}
	pred, err := DecodePrediction(resp)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict response: %w", err)
	}
	return pred, nil
}

// #endregion predict

// #region explain
// Explain asks the SHAP explainer for per-feature attributions of row.
func (c *ScoringClient) Explain(ctx context.Context, row features.Row) (Explanation, error) {
	req, err := EncodeRow(row.Columns(), row.Values())
	if err != nil {
		return Explanation{}, err
	}
	resp, err := c.client.Explain(ctx, req)
	if err != nil {
		return Explanation{}, fmt.Errorf("explain rpc: %w", err)
	}
	expl, err := DecodeExplanation(resp, row.Len())
	if err != nil {
		return Explanation{}, fmt.Errorf("explain response: %w", err)
	}
	return expl, nil
}

// #endregion explain
