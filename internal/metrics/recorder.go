package metrics

import "time"

// PhaseLabel enumerates the lifecycle phases tracked by counters.
type PhaseLabel string

const (
	PhaseSetup    PhaseLabel = "setup"
	PhaseTeardown PhaseLabel = "teardown"
)

// ResultLabel enumerates phase result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	// ResultSkipped marks teardowns that short-circuited because the
	// directory was already gone.
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for lifecycle metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObservePhaseDuration(phase PhaseLabel, d time.Duration)
	IncPhaseResult(phase PhaseLabel, result ResultLabel)
	AddLeftoverEntries(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(PhaseLabel, time.Duration) {}
func (NoopRecorder) IncPhaseResult(PhaseLabel, ResultLabel)        {}
func (NoopRecorder) AddLeftoverEntries(int)                        {}
