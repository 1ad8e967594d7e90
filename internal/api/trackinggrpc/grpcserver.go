package trackinggrpc

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGRPCServer builds a server with TrackingService and the standard health
// service registered. Both report SERVING until Shutdown is called on the
// returned health server. TrackingService calls must carry adminToken.
func NewGRPCServer(svc Service, log *slog.Logger, adminToken string, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if log == nil {
		log = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(LoggingInterceptor(log), AuthInterceptor(adminToken)))
	s := grpc.NewServer(opts...)
	RegisterTrackingServiceServer(s, New(svc, log))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}
