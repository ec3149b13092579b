package health

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service names reported by the viewer.
const (
	ServiceHTTP    = "radar.viewer.http"
	ServiceStorage = "radar.viewer.storage"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthServer tracks per-service statuses on top of the stock grpc health service.
// The empty service name is always SERVING; unknown names answer NotFound.
type HealthServer struct {
	server *grpchealth.Server
}

func NewHealthServer() *HealthServer {
	return &HealthServer{server: grpchealth.NewServer()}
}

// Check answers a health request directly, without a gRPC connection.
func (h *HealthServer) Check(ctx context.Context, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func (h *HealthServer) SetServingStatus(service string) {
	h.server.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}

func (h *HealthServer) SetNotServingStatus(service string) {
	h.server.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *HealthServer) Shutdown() {
	h.server.Shutdown()
}

// Monitor runs ping every interval until ctx is done and mirrors the result into service.
// Status changes are logged.
func (h *HealthServer) Monitor(ctx context.Context, service string, interval time.Duration, ping Pinger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := ping(pingCtx)
		cancel()

		switch {
		case err != nil && healthy:
			log.Printf("[WARN] Health: %s is not serving: %v", service, err)
			h.SetNotServingStatus(service)
			healthy = false
		case err == nil && !healthy:
			log.Printf("[INFO] Health: %s recovered", service)
			h.SetServingStatus(service)
			healthy = true
		case err == nil:
			h.SetServingStatus(service)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NewGRPCServer creates a gRPC server exposing h and reflection.
func NewGRPCServer(h *HealthServer) *grpc.Server {
	server := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(server, h.server)
	reflection.Register(server)
	return server
}

// Serve listens on addr and serves until the server is stopped.
func Serve(server *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	log.Printf("[INFO] gRPC health server listening on %s", addr)
	if err := server.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}
