// Package health aggregates readiness over the vector store and AI providers.
package health

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Status represents the aggregated readiness status.
type Status string

const (
	// Healthy indicates all dependencies respond.
	Healthy Status = "ok"
	// Degraded indicates at least one dependency failed.
	Degraded Status = "degraded"
)

// CheckResult represents an individual dependency outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
)

// Check names reported by the readiness endpoint.
const (
	CheckVectorStore = "vector_store"
	CheckEmbedding   = "embedding"
)

// DefaultCheckTimeout bounds each dependency probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs readiness checks.
type Service struct {
	checks  map[string]Checker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding ProviderChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	checks := map[string]Checker{CheckVectorStore: store.Ping}
	if embedding != nil {
		checks[CheckEmbedding] = embedding.HealthCheck
	}
	return &Service{checks: checks, timeout: DefaultCheckTimeout, logger: logger}
}

// WithTimeout overrides DefaultCheckTimeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every registered check and reports the worst outcome.
func (s *Service) Check(ctx context.Context) Report {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(names))}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](checkCtx)
		cancel()

		if err != nil {
			s.logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			report.Checks[name] = CheckError
			report.Status = Degraded
			continue
		}
		report.Checks[name] = CheckOK
	}

	return report
}
