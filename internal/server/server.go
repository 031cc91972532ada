// Package server assembles the gRPC server: interceptor chain, health, reflection and the
// catalog service registrations.
package server

import (
	"context"
	"net"

	"github.com/fekuna/omnipos-catalog-service/internal/activity"
	"github.com/fekuna/omnipos-catalog-service/internal/assignment"
	"github.com/fekuna/omnipos-catalog-service/internal/interceptor"
	"github.com/fekuna/omnipos-catalog-service/internal/inventory"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/pkg/i18n"
	"github.com/fekuna/omnipos-catalog-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Services are the use cases RPC handlers are built on.
type Services struct {
	Products    product.UseCase
	Assignments assignment.UseCase
	Inventory   inventory.UseCase
	Activity    activity.UseCase
}

// Registrar registers generated service implementations on s.
type Registrar func(s *grpc.Server, svc *Services)

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger logger.ZapLogger
}

func New(log logger.ZapLogger, tr *i18n.Translator, svc *Services, registrars ...Registrar) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.Actor(),
			interceptor.Errors(tr),
			interceptor.Logging(log),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	for _, register := range registrars {
		register(gs, svc)
	}
	for name := range gs.GetServiceInfo() {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: gs, health: hs, logger: log}
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop drains in-flight calls, forcing the stop when ctx expires first.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, forcing")
		s.grpc.Stop()
	}
}
