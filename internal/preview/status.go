package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/mdxsite/internal/site"
	"git.home.luguber.info/inful/mdxsite/internal/version"
)

// HealthStatus classifies the preview server's overall condition.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// BuildSnapshot is the health view of the most recent build attempt.
type BuildSnapshot struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Outcome    string    `json:"outcome"`
	Pages      int       `json:"pages"`
	Rendered   int       `json:"rendered"`
	Failed     int       `json:"failed"`
	Duration   string    `json:"duration"`
	FinishedAt time.Time `json:"finished_at"`
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status    HealthStatus   `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Uptime    string         `json:"uptime"`
	Version   string         `json:"version"`
	Clients   int            `json:"reload_clients"`
	Builds    int            `json:"builds"`
	LastError string         `json:"last_error,omitempty"`
	LastBuild *BuildSnapshot `json:"last_build,omitempty"`
}

// buildStatus tracks rebuild outcomes for the health endpoint.
//
// The server stays degraded rather than unhealthy as long as one good
// build exists, since the last good output is still being served.
type buildStatus struct {
	mu        sync.Mutex
	startedAt time.Time
	builds    int
	lastErr   error
	hasGood   bool
	last      *BuildSnapshot
}

func newBuildStatus() *buildStatus {
	return &buildStatus{startedAt: time.Now()}
}

func (s *buildStatus) record(report *site.BuildReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.builds++
	s.lastErr = err
	if report != nil {
		s.last = &BuildSnapshot{
			ID:         report.ID,
			Mode:       report.Mode,
			Outcome:    string(report.Outcome),
			Pages:      report.Pages,
			Rendered:   report.Rendered,
			Failed:     report.Failed,
			Duration:   report.Duration().Truncate(time.Millisecond).String(),
			FinishedAt: report.End,
		}
	}
	if err == nil {
		s.hasGood = true
	}
}

func (s *buildStatus) snapshot(clients int) *HealthResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startedAt).Truncate(time.Second).String(),
		Version:   version.Version,
		Clients:   clients,
		Builds:    s.builds,
		LastBuild: s.last,
	}
	if s.lastErr != nil {
		resp.LastError = s.lastErr.Error()
		if s.hasGood {
			resp.Status = HealthStatusDegraded
		} else {
			resp.Status = HealthStatusUnhealthy
		}
	} else if s.builds == 0 {
		resp.Status = HealthStatusDegraded
	}
	return resp
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	health := s.status.snapshot(s.hub.ClientCount())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if health.Status == HealthStatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}
