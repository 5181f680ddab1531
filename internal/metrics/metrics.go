// Package metrics exports engine tick telemetry to Prometheus.
package metrics

import (
	"net/http"

	"github.com/l1jgo/hecs/internal/core/ecs"
	coresys "github.com/l1jgo/hecs/internal/core/system"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records every tick the engine reports. It owns a private
// registry so several engines can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	phase        *prometheus.HistogramVec
	callbacks    *prometheus.CounterVec
	entities     prometheus.Gauge
}

var _ ecs.TickObserver = (*Collector)(nil)

// NewCollector creates a collector whose metrics live under namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "hecs"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "ticks_total",
		Help:      "Total number of completed ticks",
	})

	c.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of one engine tick",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~800ms
	})

	c.phase = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "phase_duration_seconds",
			Help:      "Wall time of one tick phase",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		},
		[]string{"phase"},
	)

	c.callbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "callbacks_total",
			Help:      "System lifecycle callbacks invoked, by callback",
		},
		[]string{"callback"},
	)

	c.entities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "entities",
		Help:      "Live entities after the last tick, root included",
	})

	c.registry.MustRegister(c.ticks, c.tickDuration, c.phase, c.callbacks, c.entities)
	return c
}

// ObserveTick implements ecs.TickObserver.
func (c *Collector) ObserveTick(s ecs.TickStats) {
	c.ticks.Inc()
	c.tickDuration.Observe(s.Duration.Seconds())
	for p, d := range s.Phases {
		c.phase.WithLabelValues(coresys.Phase(p).String()).Observe(d.Seconds())
	}
	c.callbacks.WithLabelValues("enter").Add(float64(s.Entered))
	c.callbacks.WithLabelValues("exit").Add(float64(s.Exited))
	c.callbacks.WithLabelValues("add").Add(float64(s.Added))
	c.callbacks.WithLabelValues("update").Add(float64(s.Updated))
	c.callbacks.WithLabelValues("remove").Add(float64(s.Removed))
	c.callbacks.WithLabelValues("destroy").Add(float64(s.Destroyed))
	c.entities.Set(float64(s.Entities))
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
