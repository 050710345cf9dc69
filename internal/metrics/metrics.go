package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the bot's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesReceived  *prometheus.CounterVec
	Records          *prometheus.CounterVec
	AutoFinalize     prometheus.Counter
	WebhookRejected  prometheus.Counter
	OutboundMessages *prometheus.CounterVec
	PipelineLatency  *prometheus.HistogramVec
	Errors           *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry together with the Go and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "shipment_bot"
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		UpdatesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_received_total",
			Help:      "Inbound chat events by channel and kind.",
		}, []string{"channel", "kind"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Parsed shipment records by mode and result.",
		}, []string{"mode", "result"}),
		AutoFinalize: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_finalize_total",
			Help:      "Buffers finalized by the idle timer.",
		}),
		WebhookRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_rejected_total",
			Help:      "Webhook calls rejected for a wrong secret.",
		}),
		OutboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "Outbound messages by channel and status.",
		}, []string{"channel", "status"}),
		PipelineLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent splitting, extracting and validating one message.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"mode"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Internal errors by component.",
		}, []string{"component"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UpdatesReceived,
		m.Records,
		m.AutoFinalize,
		m.WebhookRejected,
		m.OutboundMessages,
		m.PipelineLatency,
		m.Errors,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
