package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                 sync.Once
	stageDuration        *prom.HistogramVec
	buildDuration        prom.Histogram
	stageResults         *prom.CounterVec
	buildOutcome         *prom.CounterVec
	transformDuration    *prom.HistogramVec
	transformConcurrency prom.Gauge
	modules              prom.Counter
	chunks               prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bundler",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bundler",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bundler",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bundler",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.transformDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bundler",
			Name:      "transform_duration_seconds",
			Help:      "Duration of individual transform unit applications",
			Buckets:   prom.DefBuckets,
		}, []string{"unit", "result"})
		pr.transformConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "bundler",
			Name:      "transform_concurrency",
			Help:      "Worker pool size used for the last graph construction",
		})
		pr.modules = prom.NewCounter(prom.CounterOpts{
			Namespace: "bundler",
			Name:      "modules_total",
			Help:      "Modules resolved and transformed across builds",
		})
		pr.chunks = prom.NewCounter(prom.CounterOpts{
			Namespace: "bundler",
			Name:      "chunks_total",
			Help:      "Chunks emitted across builds",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.transformDuration, pr.transformConcurrency, pr.modules, pr.chunks)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveTransformDuration(unit string, d time.Duration, success bool) {
	if p == nil || p.transformDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.transformDuration.WithLabelValues(unit, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetTransformConcurrency(n int) {
	if p == nil || p.transformConcurrency == nil {
		return
	}
	p.transformConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) AddModules(n int) {
	if p == nil || p.modules == nil {
		return
	}
	p.modules.Add(float64(n))
}

func (p *PrometheusRecorder) AddChunks(n int) {
	if p == nil || p.chunks == nil {
		return
	}
	p.chunks.Add(float64(n))
}
