// Package grpc runs the storefront's gRPC endpoint. It serves the standard
// grpc.health.v1 service so orchestrators can check the process:
//
//	srv, err := grpc.Start(config.GRPCPort())
//	// ...run until signal...
//	srv.Stop()
//
// Calls pass through panic recovery, request logging and Prometheus
// interceptors.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/perennia/storefront/pkg/metrics"
)

// ServiceName is the health-check name the storefront reports under, next
// to the overall "" service.
const ServiceName = "perennia.storefront"

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// observeInterceptor logs each unary call and records its metrics.
func observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	metrics.RecordGRPC(info.FullMethod, code.String(), start)
	slog.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// ─── Server ───────────────────────────────────────────────────────────────────

type Server struct {
	srv    *grpc.Server
	health *health.Server
	lis    net.Listener
}

// New builds the server without listening; Serve starts it.
func New() *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)

	// grpcurl works without the proto files.
	reflection.Register(srv)

	return &Server{srv: srv, health: hs}
}

// Serve accepts connections on lis in the background.
func (s *Server) Serve(lis net.Listener) {
	s.lis = lis
	slog.Info("gRPC server starting", "addr", lis.Addr().String())
	go func() {
		if err := s.srv.Serve(lis); err != nil {
			slog.Error("grpc: serve error", "error", err)
		}
	}()
}

// Start listens on port and serves.
func Start(port string) (*Server, error) {
	addr := ":" + port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	s := New()
	s.Serve(lis)
	return s, nil
}

// Stop reports NOT_SERVING, then waits for in-flight calls to finish.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	slog.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.srv.GracefulStop()
}
