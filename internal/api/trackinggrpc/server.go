// Package trackinggrpc serves trackings.v1.TrackingService over gRPC with a
// JSON codec.
package trackinggrpc

import (
	"context"
	"log/slog"

	"github.com/BearBump/TrackSim/internal/models"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "trackings.v1.TrackingService"

type Service interface {
	GetTrackingInfo(ctx context.Context, trackingID string) (*models.TrackingInfo, error)
	CreateOrder(ctx context.Context, in models.OrderCreateInput) (string, error)
	Advance(ctx context.Context, trackingID string, details models.StatusUpdateDetails) (*models.Order, error)
	SetStatus(ctx context.Context, trackingID string, status models.Status, details models.StatusUpdateDetails) (*models.Order, error)
}

type TrackingServiceServer interface {
	GetTrackingInfo(context.Context, *GetTrackingInfoRequest) (*GetTrackingInfoResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*CreateOrderResponse, error)
	AdvanceOrder(context.Context, *AdvanceOrderRequest) (*OrderResponse, error)
	SetStatus(context.Context, *SetStatusRequest) (*OrderResponse, error)
}

type Server struct {
	svc Service
	log *slog.Logger
}

func New(svc Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log.With("component", "grpc_api")}
}

func (s *Server) GetTrackingInfo(ctx context.Context, req *GetTrackingInfoRequest) (*GetTrackingInfoResponse, error) {
	info, err := s.svc.GetTrackingInfo(ctx, req.TrackingID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &GetTrackingInfoResponse{Info: info}, nil
}

func (s *Server) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	id, err := s.svc.CreateOrder(ctx, req.Order)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &CreateOrderResponse{TrackingID: id}, nil
}

func (s *Server) AdvanceOrder(ctx context.Context, req *AdvanceOrderRequest) (*OrderResponse, error) {
	o, err := s.svc.Advance(ctx, req.TrackingID, models.StatusUpdateDetails{
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *Server) SetStatus(ctx context.Context, req *SetStatusRequest) (*OrderResponse, error) {
	o, err := s.svc.SetStatus(ctx, req.TrackingID, req.Status, models.StatusUpdateDetails{
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return nil, s.toStatus(err)
	}
	return &OrderResponse{Order: o}, nil
}

func (s *Server) toStatus(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, models.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		s.log.Error("rpc failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func RegisterTrackingServiceServer(s grpc.ServiceRegistrar, srv TrackingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrackingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTrackingInfo", Handler: getTrackingInfoHandler},
		{MethodName: "CreateOrder", Handler: createOrderHandler},
		{MethodName: "AdvanceOrder", Handler: advanceOrderHandler},
		{MethodName: "SetStatus", Handler: setStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trackings/v1/tracking_service",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

func getTrackingInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetTrackingInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).GetTrackingInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetTrackingInfo")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).GetTrackingInfo(ctx, req.(*GetTrackingInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("CreateOrder")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).CreateOrder(ctx, req.(*CreateOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func advanceOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AdvanceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).AdvanceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("AdvanceOrder")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).AdvanceOrder(ctx, req.(*AdvanceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func setStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrackingServiceServer).SetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("SetStatus")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrackingServiceServer).SetStatus(ctx, req.(*SetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// LoggingInterceptor logs every call with its duration and resulting code.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		log.Debug("grpc call", "method", info.FullMethod, "code", status.Code(err).String())
		return resp, err
	}
}
