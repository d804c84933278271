package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/loosed/pkg/engine"
)

const namespace = "loosed"

// Collector records engine events into Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	rules          prometheus.Gauge
	rulesAdded     *prometheus.CounterVec
	rulesRemoved   prometheus.Counter
	responsesSet   *prometheus.CounterVec
	dispatch       *prometheus.CounterVec
	failures       *prometheus.CounterVec
	unbound        prometheus.Counter
	requestLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector with a fresh registry. Go runtime and
// process collectors are registered alongside the engine metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		rules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules",
			Help:      "Number of rules currently configured.",
		}),
		rulesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_added_total",
			Help:      "Rules created, by kind.",
		}, []string{"kind"}),
		rulesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_removed_total",
			Help:      "Rules removed.",
		}),
		responsesSet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_set_total",
			Help:      "Responses bound to rules, by kind.",
		}, []string{"kind"}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched requests, by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Rules skipped because a predicate or builder failed, by stage.",
		}, []string{"stage"}),
		unbound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_unbound_total",
			Help:      "Matching rules skipped because no response was bound.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the dynamic routes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
	}

	c.registry.MustRegister(
		c.rules,
		c.rulesAdded,
		c.rulesRemoved,
		c.responsesSet,
		c.dispatch,
		c.failures,
		c.unbound,
		c.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the metrics are registered in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Instrument wraps a handler to record request latency.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(c.requestLatency, next)
}

func (c *Collector) RuleAdded(_, kind string) {
	c.rules.Inc()
	c.rulesAdded.WithLabelValues(kind).Inc()
}

func (c *Collector) RuleRemoved(string) {
	c.rules.Dec()
	c.rulesRemoved.Inc()
}

func (c *Collector) ResponseSet(_, kind string) {
	c.responsesSet.WithLabelValues(kind).Inc()
}

func (c *Collector) RuleFailed(_ string, stage engine.Stage, _ error) {
	c.failures.WithLabelValues(string(stage)).Inc()
}

func (c *Collector) RuleUnbound(string) {
	c.unbound.Inc()
}

func (c *Collector) Matched(string) {
	c.dispatch.WithLabelValues("matched").Inc()
}

func (c *Collector) Missed() {
	c.dispatch.WithLabelValues("missed").Inc()
}

var _ engine.Observer = (*Collector)(nil)
