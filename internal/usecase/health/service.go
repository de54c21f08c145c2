package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	catalog DBPinger
	vision  VisionChecker
}

// New creates a Service. vision can be nil.
func New(db DBPinger, vision VisionChecker) *Service {
	return &Service{db: db, vision: vision}
}

// WithCatalog adds a separate catalog database check (Postgres driver).
func (s *Service) WithCatalog(catalog DBPinger) *Service {
	s.catalog = catalog
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = result(s.db.Ping(ctx))

	if s.catalog != nil {
		checks["catalog"] = result(s.catalog.Ping(ctx))
	}

	if s.vision != nil {
		checks["vision"] = result(s.vision.HealthCheck(ctx))
	}

	// The KV store backs images and sessions; without it nothing works.
	// A missing vision provider only disables image search.
	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["database"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
