package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chance_calculator"

// Metrics holds the service's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Conversions  *prometheus.CounterVec
	Comparisons  prometheus.Counter
	Simulations  *prometheus.CounterVec
	Trials       prometheus.Counter
	CacheResults *prometheus.CounterVec
	DomainErrors *prometheus.CounterVec
	WSClients    prometheus.Gauge
	WSMessages   prometheus.Counter
	WSDropped    prometheus.Counter
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions served, by input kind.",
		}, []string{"kind"}),
		Comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Comparisons served.",
		}),
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulations run, by kind and tolerance outcome.",
		}, []string{"kind", "within_tolerance"}),
		Trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_trials_total",
			Help:      "Bernoulli trials drawn across all simulations.",
		}),
		CacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Conversion cache lookups, by result (hit, miss, error).",
		}, []string{"result"}),
		DomainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_errors_total",
			Help:      "Inputs rejected as outside their representation's domain.",
		}, []string{"kind"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		WSMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Simulation results delivered to websocket clients.",
		}),
		WSDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_total",
			Help:      "Messages dropped for slow websocket clients or a full broadcast buffer.",
		}),
	}

	reg.MustRegister(
		m.Conversions,
		m.Comparisons,
		m.Simulations,
		m.Trials,
		m.CacheResults,
		m.DomainErrors,
		m.WSClients,
		m.WSMessages,
		m.WSDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
