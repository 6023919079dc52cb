// Package metrics exports form lifecycle measurements to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-formstate/pkg/form"
)

const namespace = "formstate"

// Collector holds the formstate metrics. It implements form.Observer.
type Collector struct {
	// Validation metrics
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec
	FieldFailures      *prometheus.CounterVec

	// Lifecycle metrics
	SubmitsTotal *prometheus.CounterVec
	ResetsTotal  *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Definition metrics
	DefinitionReloads      prometheus.Counter
	DefinitionReloadErrors prometheus.Counter
	DefinitionForms        prometheus.Gauge
}

var _ form.Observer = (*Collector)(nil)

// New creates a collector registered with the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of validation passes",
			},
			[]string{"form", "scope", "result"},
		),
		ValidationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Validation pass duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"form", "scope"},
		),
		FieldFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_failures_total",
				Help:      "Total number of failing fields reported by validation",
			},
			[]string{"form", "scope"},
		),

		SubmitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submits_total",
				Help:      "Total number of submit attempts",
			},
			[]string{"form", "result"},
		),
		ResetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resets_total",
				Help:      "Total number of form resets",
			},
			[]string{"form"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of form HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Form HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),

		DefinitionReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "definition_reloads_total",
				Help:      "Total number of successful definition reloads",
			},
		),
		DefinitionReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "definition_reload_errors_total",
				Help:      "Total number of failed definition reloads",
			},
		),
		DefinitionForms: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "definition_forms",
				Help:      "Number of form definitions currently loaded",
			},
		),
	}
}

// ObserveValidation records one validation pass.
func (c *Collector) ObserveValidation(formName string, scope form.ValidationScope, duration time.Duration, failures int) {
	result := "valid"
	if failures > 0 {
		result = "invalid"
		c.FieldFailures.WithLabelValues(formName, string(scope)).Add(float64(failures))
	}
	c.ValidationsTotal.WithLabelValues(formName, string(scope), result).Inc()
	c.ValidationDuration.WithLabelValues(formName, string(scope)).Observe(duration.Seconds())
}

// ObserveSubmit records one submit attempt.
func (c *Collector) ObserveSubmit(formName string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	c.SubmitsTotal.WithLabelValues(formName, result).Inc()
}

// ObserveReset records one reset.
func (c *Collector) ObserveReset(formName string) {
	c.ResetsTotal.WithLabelValues(formName).Inc()
}

// ObserveRequest records one HTTP request against a form route.
func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveReload records a definition reload outcome and the loaded form count.
func (c *Collector) ObserveReload(forms int, err error) {
	if err != nil {
		c.DefinitionReloadErrors.Inc()
		return
	}
	c.DefinitionReloads.Inc()
	c.DefinitionForms.Set(float64(forms))
}

// StatusClass buckets an HTTP status code, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
