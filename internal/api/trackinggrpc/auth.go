package trackinggrpc

import (
	"context"
	"strings"

	"github.com/BearBump/TrackSim/internal/api/adminauth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

// AuthInterceptor requires the admin bearer token on every TrackingService
// method. Other services on the same server, such as health, stay open.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		for _, v := range md.Get(authorizationKey) {
			if adminauth.Check(v, token) {
				return handler(ctx, req)
			}
		}
		return nil, status.Error(codes.Unauthenticated, "admin credentials required")
	}
}
