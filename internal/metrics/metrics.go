// Package metrics holds the Prometheus collectors shared by the loader and
// the object registry.
//
// Importing the package registers nothing with the default Prometheus
// registry. Handler exposes the collectors on a registry of its own, and
// Register adds them to any other Registerer.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "assetblob"

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeRetrieval = "retrieval_error"
	OutcomeBody      = "body_error"
)

var (
	fetchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_total",
		Help:      "Number of asset retrievals by outcome",
	}, []string{"outcome"})
	fetchBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_bytes_total",
		Help:      "Number of body bytes read by successful retrievals",
	})
	registeredCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registered_total",
		Help:      "Number of objects registered",
	})
	releasedCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "released_total",
		Help:      "Number of references released",
	})
	liveReferences = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_references",
		Help:      "Number of registered references not yet released",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{fetchCount, fetchBytes, registeredCount, releasedCount, liveReferences}
}

// Register adds the collectors to r. Collectors already registered with r
// are skipped.
func Register(r prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveFetch records one retrieval attempt.
func ObserveFetch(outcome string, bytes int) {
	fetchCount.With(prometheus.Labels{"outcome": outcome}).Inc()
	if outcome == OutcomeOK {
		fetchBytes.Add(float64(bytes))
	}
}

// ObserveRegister records a new registry entry.
func ObserveRegister() {
	registeredCount.Inc()
	liveReferences.Inc()
}

// ObserveRelease records a removed registry entry.
func ObserveRelease() {
	releasedCount.Inc()
	liveReferences.Dec()
}

// FetchCount returns the current counter value for outcome.
func FetchCount(outcome string) float64 {
	return counterValue(fetchCount.With(prometheus.Labels{"outcome": outcome}))
}

// LiveReferences returns the current number of unreleased references.
func LiveReferences() float64 {
	m := &dto.Metric{}
	if err := liveReferences.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Handler serves the collectors in the Prometheus text format from a
// dedicated registry.
func Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors()...)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
