package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DocumentedMetric describes a registered metric, for the generated metrics reference.
type DocumentedMetric struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Help   string   `json:"help"`
	Labels []string `json:"labels"`
}

// Factory creates metrics on a registry, and remembers them for documentation.
type Factory interface {
	NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec
	NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge
	NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec
	NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec
	Document() []DocumentedMetric
}

// RegistryMetricer is implemented by metricers that can be served by a metrics server.
type RegistryMetricer interface {
	Registry() *prometheus.Registry
}

// NewRegistry creates a registry that includes the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

type documentor struct {
	factory promauto.Factory

	mu      sync.Mutex
	metrics []DocumentedMetric
}

func With(registry *prometheus.Registry) Factory {
	return &documentor{factory: promauto.With(registry)}
}

func (d *documentor) record(typ string, name string, help string, labels []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = append(d.metrics, DocumentedMetric{Type: typ, Name: name, Help: help, Labels: labels})
}

func (d *documentor) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	d.record("counter", prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	return d.factory.NewCounterVec(opts, labelNames)
}

func (d *documentor) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	d.record("gauge", prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, nil)
	return d.factory.NewGauge(opts)
}

func (d *documentor) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	d.record("gauge", prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	return d.factory.NewGaugeVec(opts, labelNames)
}

func (d *documentor) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	d.record("histogram", prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	return d.factory.NewHistogramVec(opts, labelNames)
}

// Document returns the created metrics, sorted by name.
func (d *documentor) Document() []DocumentedMetric {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]DocumentedMetric(nil), d.metrics...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
