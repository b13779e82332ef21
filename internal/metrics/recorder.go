package metrics

import "time"

// PageOutcome enumerates per-page build result categories for counters.
type PageOutcome string

const (
	PageRendered PageOutcome = "rendered"
	PageSkipped  PageOutcome = "skipped"
	PageFailed   PageOutcome = "failed"
)

// Recorder defines observability hooks for build and page metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	ObservePageRenderDuration(d time.Duration)
	IncPageOutcome(outcome PageOutcome)
	IncBuildOutcome(outcome string)  // outcome: success|warning|failed|canceled
	IncRebuildTrigger(reason string) // reason: fswatch|schedule|manual
	SetLivereloadClients(n int)
	IncLinkCheckResult(scope string, ok bool) // scope: internal|external
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)      {}
func (NoopRecorder) ObservePageRenderDuration(time.Duration) {}
func (NoopRecorder) IncPageOutcome(PageOutcome)              {}
func (NoopRecorder) IncBuildOutcome(string)                  {}
func (NoopRecorder) IncRebuildTrigger(string)                {}
func (NoopRecorder) SetLivereloadClients(int)                {}
func (NoopRecorder) IncLinkCheckResult(string, bool)         {}
