package server

import (
	"testing"

	healthhandler "linkerai/backend/internal/health/handler"
)

func TestNewGRPCServer_RegistersHealth(t *testing.T) {
	s := NewGRPCServer(healthhandler.NewServer(nil, nil), nil)
	defer s.Stop()
	if _, ok := s.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Errorf("services = %v, want grpc.health.v1.Health", s.GetServiceInfo())
	}
}
