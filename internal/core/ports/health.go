package ports

import "context"

// HealthChecker probes one backing dependency (Postgres, Redis). A non-nil
// error marks the dependency unhealthy.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
