package health

import "context"

// Checker probes one dependency. Both the vector store (Ping) and the
// embedding provider (HealthCheck) are adapted to it in New.
type Checker func(ctx context.Context) error

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding or chat provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
