package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
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

// Service coordinates health checks across the metadata store, the event
// stream, the chunk index, and the embedding provider.
type Service struct {
	db        Pinger
	stream    Pinger
	index     Pinger
	embedding EmbeddingChecker
}

// New creates a Service. Any dependency can be nil; its check is then skipped.
func New(db, stream, index Pinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, stream: stream, index: index, embedding: embedding}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	ping := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
		} else {
			checks[name] = CheckOK
		}
	}
	ping("database", s.db)
	ping("stream", s.stream)
	ping("index", s.index)

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
