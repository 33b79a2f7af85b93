package taftest

import (
	"fmt"

	"github.com/apitaf/apitaf/framework"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsNamespace = "taf"

// MetricsTestLogger counts test outcomes per module and records method durations. At EndLog
// the collected metrics are pushed to a Prometheus Pushgateway, grouped by environment.
type MetricsTestLogger struct {
	gatewayURL  string
	job         string
	environment string
	registry    *prometheus.Registry
	results     *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	failed      map[string]bool
}

func NewMetricsTestLogger(gatewayURL, job, environment string) *MetricsTestLogger {
	m := &MetricsTestLogger{
		gatewayURL:  gatewayURL,
		job:         job,
		environment: environment,
		registry:    prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tests_total",
				Help:      "Number of test methods by outcome.",
			},
			[]string{"module", "result"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "test_duration_seconds",
				Help:      "Duration of test methods in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"module"},
		),
		failed: make(map[string]bool),
	}
	m.registry.MustRegister(m.results, m.durations)
	return m
}

// Registry exposes the collectors, mainly for inspection.
func (m *MetricsTestLogger) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsTestLogger) TestStarted(TestID) {}

func (m *MetricsTestLogger) TestError(id TestID, _ error) {
	m.failed[id.Path()] = true
}

func (m *MetricsTestLogger) TestFinished(id TestID, result TestResult, _ framework.CapturedOutput) {
	if !isMethodScope(id) {
		return
	}
	outcome := "passed"
	if m.failed[id.Path()] {
		outcome = "failed"
	}
	m.results.WithLabelValues(id[0], outcome).Inc()
	m.durations.WithLabelValues(id[0]).Observe(result.Duration.Seconds())
}

func (m *MetricsTestLogger) TestSkipped(id TestID, _ string) {
	if isMethodScope(id) {
		m.results.WithLabelValues(id[0], "skipped").Inc()
	}
}

func (m *MetricsTestLogger) EndLog(Results) error {
	if m.gatewayURL == "" {
		return nil
	}
	err := push.New(m.gatewayURL, m.job).
		Grouping("environment", m.environment).
		Gatherer(m.registry).
		Push()
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", m.gatewayURL, err)
	}
	return nil
}

func isMethodScope(id TestID) bool {
	return len(id) >= 3
}
