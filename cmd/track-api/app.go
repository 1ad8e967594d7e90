package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/TrackSim/internal/api/httpapi"
	"github.com/BearBump/TrackSim/internal/api/trackinggrpc"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type trackAPIOpts struct {
	grpcAddr string
	httpAddr string
	http     httpapi.Options

	onListen func(grpcAddr, httpAddr string)
}

// backgroundTask runs alongside the servers until ctx is done.
type backgroundTask interface {
	Run(ctx context.Context) error
}

func runTrackAPI(ctx context.Context, opts trackAPIOpts, svc httpapi.Service, log *slog.Logger, tasks ...backgroundTask) error {
	if log == nil {
		log = slog.Default()
	}

	grpcLis, err := net.Listen("tcp", opts.grpcAddr)
	if err != nil {
		return errors.Wrap(err, "listen grpc")
	}
	httpLis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		_ = grpcLis.Close()
		return errors.Wrap(err, "listen http")
	}

	if opts.onListen != nil {
		opts.onListen(grpcLis.Addr().String(), httpLis.Addr().String())
	}

	grpcSrv, hs := trackinggrpc.NewGRPCServer(svc, log, opts.http.AdminToken)
	handler := httpapi.New(svc, log, opts.http).Router()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runGRPCServer(gctx, grpcLis, grpcSrv, hs, log) })
	g.Go(func() error { return runHTTPServer(gctx, httpLis, handler, log) })
	for _, t := range tasks {
		t := t
		g.Go(func() error { return t.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func runGRPCServer(ctx context.Context, lis net.Listener, s *grpc.Server, hs *health.Server, log *slog.Logger) error {
	go func() {
		<-ctx.Done()
		hs.Shutdown()
		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			s.Stop()
		}
		_ = lis.Close()
	}()

	log.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.Serve(lis)
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
