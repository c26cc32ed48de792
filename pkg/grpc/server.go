// Package grpc serves the standard gRPC health service (grpc.health.v1)
// for load balancers and orchestrators that check health over gRPC.
//
// The reported status follows a Checker, normally a database ping:
//
//	srv := grpc.New(database.Ping)
//	lis, _ := net.Listen("tcp", ":"+config.GRPCPort())
//	go srv.Serve(ctx, lis)
//	defer srv.Stop()
package grpc

import (
	"context"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/metrics"
)

// ServiceName is the health service name clients can query besides "".
const ServiceName = "painel.Pedidos"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "painel",
		Name:      "grpc_server_handled_total",
		Help:      "Total number of gRPC calls completed by method and code.",
	}, []string{"grpc_method", "grpc_code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "painel",
		Name:      "grpc_server_handling_seconds",
		Help:      "Histogram of gRPC response latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"grpc_method"})
)

func init() {
	metrics.DefaultRegistry.MustRegister(requestsTotal, requestDuration)
}

// Checker reports whether the service can do its job.
type Checker func(ctx context.Context) error

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)
	code := status.Code(err)

	requestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	requestDuration.WithLabelValues(info.FullMethod).Observe(dur.Seconds())
	logger.Debug("grpc: request",
		"method", info.FullMethod,
		"duration_ms", dur.Milliseconds(),
		"code", code.String(),
	)
	return resp, err
}

// ─── Server ───────────────────────────────────────────────────────────────────

type Server struct {
	srv      *grpc.Server
	health   *health.Server
	check    Checker
	interval time.Duration
}

// New builds the server. The health status is refreshed from check every 10s.
func New(check Checker) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(1<<20),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{srv: srv, health: hs, check: check, interval: 10 * time.Second}
}

// Refresh runs the checker once and publishes the result.
func (s *Server) Refresh(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.check != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.check(cctx)
		cancel()
		if err != nil {
			logger.Warn("grpc: health check failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Serve blocks serving on lis until Stop is called. ctx bounds the health
// refresh loop.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Refresh(ctx)
			}
		}
	}()

	logger.Info("grpc: serving", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING and waits for in-flight RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
	logger.Info("grpc: stopped")
}
