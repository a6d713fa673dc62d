package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// GRPCServerWorker exposes the operational gRPC services (health).
type GRPCServerWorker struct {
	log     *slog.Logger
	server  *grpc.Server
	health  *health.Server
	address string
}

func NewGRPCServerWorker(log *slog.Logger, server *grpc.Server, health *health.Server, address string) *GRPCServerWorker {
	return &GRPCServerWorker{log: log, server: server, health: health, address: address}
}

func (w *GRPCServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC server", "address", w.address, "at", time.Now().UTC())
		for serviceName := range w.server.GetServiceInfo() {
			w.log.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := w.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	w.log.Info("Shutting down gRPC server")
	w.health.Shutdown()
	w.server.GracefulStop()
	return nil
}
