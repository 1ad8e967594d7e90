package trackinggrpc

import (
	"context"

	"github.com/BearBump/TrackSim/internal/api/adminauth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls TrackingService using the JSON codec.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WithAdminToken sends token as a bearer credential on every call.
func (c *Client) WithAdminToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, authorizationKey, adminauth.Header(c.token))
	}
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *Client) GetTrackingInfo(ctx context.Context, in *GetTrackingInfoRequest, opts ...grpc.CallOption) (*GetTrackingInfoResponse, error) {
	out := new(GetTrackingInfoResponse)
	if err := c.invoke(ctx, "GetTrackingInfo", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*CreateOrderResponse, error) {
	out := new(CreateOrderResponse)
	if err := c.invoke(ctx, "CreateOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdvanceOrder(ctx context.Context, in *AdvanceOrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, "AdvanceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, "SetStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
