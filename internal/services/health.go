package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pinger checks a backend connection
type Pinger interface {
	Ping(ctx context.Context) error
	ReportStats()
}

// HealthResult is the health check response
type HealthResult struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// HealthService implements the health check
type HealthService struct {
	db      Pinger
	service string
	version string
	log     *zap.Logger
}

// NewHealthService creates a new health service
func NewHealthService(db Pinger, service, version string, log *zap.Logger) *HealthService {
	return &HealthService{db: db, service: service, version: version, log: log.Named("health")}
}

// Check reports whether the API can reach its database.
func (s *HealthService) Check(ctx context.Context) *HealthResult {
	res := &HealthResult{Status: "healthy", Service: s.service, Version: s.version, Database: "ok"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", zap.Error(err))
		res.Status = "degraded"
		res.Database = "unreachable"
		return res
	}
	s.db.ReportStats()
	return res
}
