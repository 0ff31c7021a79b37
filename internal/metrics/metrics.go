// Package metrics provides the centralized Prometheus registry for the
// evaluation loop.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SimulationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ace_loop",
		Name:      "simulations_total",
		Help:      "Total number of strategy simulations run",
	})
	BetsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ace_loop",
		Name:      "bets_recorded_total",
		Help:      "Total number of experience rows recorded",
	})
	ExperienceWriteFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ace_loop",
		Name:      "experience_write_fallbacks_total",
		Help:      "Total number of experience writes that fell back to the secondary format",
	})
	PlaybookSavesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ace_loop",
		Name:      "playbook_saves_total",
		Help:      "Total number of playbook snapshots persisted",
	})
	PlaybookSaveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ace_loop",
		Name:      "playbook_save_failures_total",
		Help:      "Total number of failed playbook saves",
	})
)

// Gauge metrics
var (
	StrategiesEvaluated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ace_loop",
		Name:      "strategies_evaluated",
		Help:      "Number of strategies evaluated in the last run",
	})
	ExperienceRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ace_loop",
		Name:      "experience_rows",
		Help:      "Experience rows produced by the last run",
	})
)

// Histogram metrics
var (
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ace_loop",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of a single strategy simulation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	LoopDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ace_loop",
		Name:      "loop_duration_seconds",
		Help:      "Duration of a full evaluation loop run in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(BetsRecordedTotal)
		registry.MustRegister(ExperienceWriteFallbacksTotal)
		registry.MustRegister(PlaybookSavesTotal)
		registry.MustRegister(PlaybookSaveFailuresTotal)

		registry.MustRegister(StrategiesEvaluated)
		registry.MustRegister(ExperienceRows)

		registry.MustRegister(SimulationDuration)
		registry.MustRegister(LoopDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSimulation records one strategy simulation.
func RecordSimulation(durationSeconds float64) {
	SimulationsTotal.Inc()
	SimulationDuration.Observe(durationSeconds)
}

// RecordExperienceRows records the rows produced by a run.
func RecordExperienceRows(count int) {
	BetsRecordedTotal.Add(float64(count))
	ExperienceRows.Set(float64(count))
}

// RecordWriteFallback records an experience write falling back to CSV.
func RecordWriteFallback() {
	ExperienceWriteFallbacksTotal.Inc()
}

// RecordPlaybookSave records a playbook save outcome.
func RecordPlaybookSave(err error) {
	if err != nil {
		PlaybookSaveFailuresTotal.Inc()
		return
	}
	PlaybookSavesTotal.Inc()
}
