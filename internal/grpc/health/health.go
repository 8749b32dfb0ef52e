// Package health поднимает gRPC-сервис grpc.health.v1.Health.
// Статус SERVING выставляется, пока отвечает база данных.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/broadband-portal/internal/lib/sl"
)

// ServiceName имя сервиса портала в health-протоколе. Пустое имя отвечает за сервер целиком.
const ServiceName = "portal"

const (
	checkInterval = 10 * time.Second
	pingTimeout   = 2 * time.Second
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server gRPC health-сервер.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	db         Pinger
	log        *slog.Logger
	addr       string
}

// New создает Server. До первой проверки статус NOT_SERVING.
func New(log *slog.Logger, addr string, db Pinger) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpcServer: gs, health: hs, db: db, log: log, addr: addr}
}

// Check пингует базу и обновляет статус.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health check failed", sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve обслуживает запросы на lis и периодически обновляет статус до отмены ctx.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	const op = "health.Serve"

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gRPC health server starting", slog.String("address", lis.Addr().String()))
		errCh <- s.grpcServer.Serve(lis)
	}()

	s.Check(ctx)
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("%s: %w", op, err)
			}
			return nil
		case <-ticker.C:
			s.Check(ctx)
		case <-ctx.Done():
			s.log.Info("shutting down gRPC health server")
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			return nil
		}
	}
}

// Run слушает адрес из конфигурации.
func (s *Server) Run(ctx context.Context) error {
	const op = "health.Run"
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.Serve(ctx, lis)
}
