// Package metrics provides Prometheus metrics for schema binding and schema
// reloads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	// Bind metrics
	BindsTotal        *prometheus.CounterVec
	FieldBindings     *prometheus.CounterVec
	Incompatibilities *prometheus.CounterVec

	// Registry metrics
	SchemaReloads      prometheus.Counter
	SchemaReloadErrors prometheus.Counter
	SchemaGroups       prometheus.Gauge
}

// New creates a collector with all metrics registered on reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		BindsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Name:      "binds_total",
				Help:      "Schema bind operations by result",
			},
			[]string{"result"},
		),
		FieldBindings: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Name:      "field_bindings_total",
				Help:      "Bound fields by accessor strategy",
			},
			[]string{"strategy"},
		),
		Incompatibilities: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Name:      "incompatibilities_total",
				Help:      "Bind failures by incompatibility code",
			},
			[]string{"code"},
		),
		SchemaReloads: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Name:      "schema_reloads_total",
				Help:      "Successful schema reloads",
			},
		),
		SchemaReloadErrors: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "msgskema",
				Name:      "schema_reload_errors_total",
				Help:      "Failed schema reloads",
			},
		),
		SchemaGroups: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "msgskema",
				Name:      "schema_groups",
				Help:      "Number of groups in the current schema",
			},
		),
	}
}

// Bind records the outcome of a bind operation.
func (c *Collector) Bind(ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "incompatible"
	}
	c.BindsTotal.WithLabelValues(result).Inc()
}

// Field records the accessor strategy chosen for one field.
func (c *Collector) Field(strategy string) {
	if c == nil {
		return
	}
	c.FieldBindings.WithLabelValues(strategy).Inc()
}

// Incompatible records a bind failure code.
func (c *Collector) Incompatible(code string) {
	if c == nil {
		return
	}
	c.Incompatibilities.WithLabelValues(code).Inc()
}

// Reload records a schema reload attempt.
func (c *Collector) Reload(groups int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.SchemaReloadErrors.Inc()
		return
	}
	c.SchemaReloads.Inc()
	c.SchemaGroups.Set(float64(groups))
}
