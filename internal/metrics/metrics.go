package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "graphmind"

// Extraction outcomes.
const (
	ExtractionOK          = "ok"
	ExtractionMock        = "mock"
	ExtractionFailed      = "error"
	ExtractionUnparseable = "unparseable"
	ExtractionRejected    = "breaker_open"
)

// Collector owns a private registry so tests and multiple servers in one
// process never collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	extractions        *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	builds             *prometheus.CounterVec
	graphNodes         prometheus.Gauge
	graphLinks         prometheus.Gauge
	answers            *prometheus.CounterVec
}

// NewCollector registers every metric plus the Go runtime collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "chunks_total",
			Help:      "Chunks sent to the extraction service by outcome.",
		}, []string{"status"}),
		extractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Time spent extracting a single chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "builds_total",
			Help:      "Graphs installed into the session by source.",
		}, []string{"source"}),
		graphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Nodes in the current graph.",
		}),
		graphLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "links",
			Help:      "Links in the current graph.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "qa",
			Name:      "answers_total",
			Help:      "Answer streams by outcome.",
		}, []string{"status"}),
	}

	c.registry.MustRegister(
		c.extractions,
		c.extractionDuration,
		c.builds,
		c.graphNodes,
		c.graphLinks,
		c.answers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// Default returns the process wide collector.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector()
	})
	return defaultCollector
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Extractions returns the chunk counter for status.
func (c *Collector) Extractions(status string) prometheus.Counter {
	return c.extractions.WithLabelValues(status)
}

// Builds returns the build counter for source.
func (c *Collector) Builds(source string) prometheus.Counter {
	return c.builds.WithLabelValues(source)
}

// Answers returns the answer stream counter for status.
func (c *Collector) Answers(status string) prometheus.Counter {
	return c.answers.WithLabelValues(status)
}

// ObserveExtraction records one chunk extraction.
func (c *Collector) ObserveExtraction(status string, took time.Duration) {
	if c == nil {
		return
	}
	c.extractions.WithLabelValues(status).Inc()
	c.extractionDuration.Observe(took.Seconds())
}

// ObserveBuild records a graph installed into the session.
func (c *Collector) ObserveBuild(source string, nodes, links int) {
	if c == nil {
		return
	}
	c.builds.WithLabelValues(source).Inc()
	c.graphNodes.Set(float64(nodes))
	c.graphLinks.Set(float64(links))
}

// ObserveAnswer records the outcome of one answer stream.
func (c *Collector) ObserveAnswer(status string) {
	if c == nil {
		return
	}
	c.answers.WithLabelValues(status).Inc()
}
