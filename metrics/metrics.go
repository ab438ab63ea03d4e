// Package metrics records codec suite timings in a prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "base32768"

// Metrics holds the gauges of one harness run.
type Metrics struct {
	registry *prometheus.Registry

	loadDuration prometheus.Gauge
	payloadBytes prometheus.Gauge
	iterDuration *prometheus.GaugeVec
	iterations   *prometheus.GaugeVec
}

// New registers the harness gauges in a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loadDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time taken to load the codec suite and build its tables",
		}),
		payloadBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payload_bytes",
			Help:      "Size of the benchmark payload",
		}),
		iterDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "iteration_duration_seconds",
				Help:      "Mean time of one iteration of a codec benchmark",
			},
			[]string{"codec"},
		),
		iterations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "iterations",
				Help:      "Number of iterations run by a codec benchmark",
			},
			[]string{"codec"},
		),
	}
	for _, c := range []prometheus.Collector{m.loadDuration, m.payloadBytes, m.iterDuration, m.iterations} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveLoad(d time.Duration) { m.loadDuration.Set(d.Seconds()) }

func (m *Metrics) ObservePayload(n int) { m.payloadBytes.Set(float64(n)) }

// ObserveCodec records the mean iteration time of one benchmark entry.
func (m *Metrics) ObserveCodec(codec string, perIter time.Duration, iterations int) {
	m.iterDuration.WithLabelValues(codec).Set(perIter.Seconds())
	m.iterations.WithLabelValues(codec).Set(float64(iterations))
}

// WriteFile writes the registry in the text exposition format to path.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
