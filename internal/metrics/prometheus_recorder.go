package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	phaseDuration   *prom.HistogramVec
	phaseResults    *prom.CounterVec
	leftoverEntries prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.phaseDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "tmpwrap",
			Name:      "phase_duration_seconds",
			Help:      "Duration of lifecycle phases (setup, teardown)",
			Buckets:   prom.DefBuckets,
		}, []string{"phase"})
		pr.phaseResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tmpwrap",
			Name:      "phase_results_total",
			Help:      "Phase result counts by outcome",
		}, []string{"phase", "result"})
		pr.leftoverEntries = prom.NewCounter(prom.CounterOpts{
			Namespace: "tmpwrap",
			Name:      "leftover_entries_total",
			Help:      "Entries found in temporary directories at teardown",
		})
		reg.MustRegister(pr.phaseDuration, pr.phaseResults, pr.leftoverEntries)
	})
	return pr
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase PhaseLabel, d time.Duration) {
	if p == nil || p.phaseDuration == nil {
		return
	}
	p.phaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPhaseResult(phase PhaseLabel, result ResultLabel) {
	if p == nil || p.phaseResults == nil {
		return
	}
	p.phaseResults.WithLabelValues(string(phase), string(result)).Inc()
}

func (p *PrometheusRecorder) AddLeftoverEntries(n int) {
	if p == nil || p.leftoverEntries == nil || n <= 0 {
		return
	}
	p.leftoverEntries.Add(float64(n))
}
