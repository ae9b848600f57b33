package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors updated by the manager.
type Metrics struct {
	initTotal      *prometheus.CounterVec
	initDuration   prometheus.Histogram
	runTotal       *prometheus.CounterVec
	runDuration    prometheus.Histogram
	releaseTotal   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
}

// NewMetrics builds the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		initTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "init_total",
				Help:      "Session initializations that reached the engine, by result",
			},
			[]string{"provider", "result"},
		),
		initDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "init_duration_seconds",
				Help:      "Duration of session initialization in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		runTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "run_total",
				Help:      "Inference runs, by result",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "run_duration_seconds",
				Help:      "Duration of inference runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		releaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "release_total",
				Help:      "Session releases that reached the engine, by result",
			},
			[]string{"result"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sessiond",
				Subsystem: "session",
				Name:      "active",
				Help:      "Live engine sessions held by managers",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.initTotal, m.initDuration, m.runTotal, m.runDuration, m.releaseTotal, m.sessionsActive)
	}
	return m
}

var defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeInit(provider ExecutionProvider, start time.Time, err error) {
	m.initTotal.WithLabelValues(string(provider), resultLabel(err)).Inc()
	m.initDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		m.sessionsActive.Inc()
	}
}

func (m *Metrics) observeRun(start time.Time, err error) {
	m.runTotal.WithLabelValues(resultLabel(err)).Inc()
	m.runDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeRelease(err error) {
	m.releaseTotal.WithLabelValues(resultLabel(err)).Inc()
	m.sessionsActive.Dec()
}
