// services/health_service.go

package services

import (
	"context"

	"github.com/sirupsen/logrus"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is anything Check can probe.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// HealthCheckService implements the gRPC health protocol. The service is
// SERVING only while every backing store answers Ping.
type HealthCheckService struct {
	healthpb.UnimplementedHealthServer

	stores []Pinger
	log    logrus.FieldLogger
}

// NewHealthCheckService constructor
func NewHealthCheckService(log logrus.FieldLogger, stores ...Pinger) *HealthCheckService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HealthCheckService{stores: stores, log: log.WithField("component", "health")}
}

// Check pings each store.
func (h *HealthCheckService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.log.WithField("service", req.GetService()).Debug("HealthCheckService: Check called")
	for _, s := range h.stores {
		if !s.Ping(ctx) {
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
