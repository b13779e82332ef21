package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	buildDuration      prom.Histogram
	pageRenderDuration prom.Histogram
	pageOutcomes       *prom.CounterVec
	buildOutcome       *prom.CounterVec
	rebuildTriggers    *prom.CounterVec
	livereloadClients  prom.Gauge
	linkCheckResults   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdxsite",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.pageRenderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdxsite",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		})
		pr.pageOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdxsite",
			Name:      "page_outcomes_total",
			Help:      "Per-page build results by outcome",
		}, []string{"outcome"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdxsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.rebuildTriggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdxsite",
			Name:      "rebuild_triggers_total",
			Help:      "Preview rebuilds by trigger reason",
		}, []string{"reason"})
		pr.livereloadClients = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdxsite",
			Name:      "livereload_clients",
			Help:      "Connected livereload SSE clients",
		})
		pr.linkCheckResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdxsite",
			Name:      "link_check_results_total",
			Help:      "Link check results by scope and outcome",
		}, []string{"scope", "result"})
		reg.MustRegister(pr.buildDuration, pr.pageRenderDuration, pr.pageOutcomes, pr.buildOutcome, pr.rebuildTriggers, pr.livereloadClients, pr.linkCheckResults)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePageRenderDuration(d time.Duration) {
	if p == nil || p.pageRenderDuration == nil {
		return
	}
	p.pageRenderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageOutcome(outcome PageOutcome) {
	if p == nil || p.pageOutcomes == nil {
		return
	}
	p.pageOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncRebuildTrigger(reason string) {
	if p == nil || p.rebuildTriggers == nil {
		return
	}
	p.rebuildTriggers.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) SetLivereloadClients(n int) {
	if p == nil || p.livereloadClients == nil {
		return
	}
	p.livereloadClients.Set(float64(n))
}

func (p *PrometheusRecorder) IncLinkCheckResult(scope string, ok bool) {
	if p == nil || p.linkCheckResults == nil {
		return
	}
	res := "broken"
	if ok {
		res = "ok"
	}
	p.linkCheckResults.WithLabelValues(scope, res).Inc()
}
