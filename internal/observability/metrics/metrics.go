// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brain_health"

// Metrics holds all Prometheus metrics for the assessment pipeline.
type Metrics struct {
	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	PipelinesActive  prometheus.Gauge
	PipelineDuration prometheus.Histogram

	// Stage metrics
	StageLatency   *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	StageFallbacks *prometheus.CounterVec

	// Audio metrics
	AudioBytesUploaded prometheus.Counter

	// Backend health
	HealthChecks *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC health server
	GRPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by outcome",
		}, []string{"outcome"}),
		PipelinesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipelines_active",
			Help:      "Number of pipeline runs in progress",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		}),

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of a pipeline stage in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage", "provider"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Total number of stage failures by error kind",
		}, []string{"stage", "kind"}),
		StageFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_fallbacks_total",
			Help:      "Total number of stages substituted with mock data",
		}, []string{"stage"}),

		AudioBytesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_uploaded_total",
			Help:      "Total audio bytes sent for transcription",
		}),

		HealthChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_health_checks_total",
			Help:      "Total number of backend health probes by result",
		}, []string{"result"}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls by method and status code",
		}, []string{"method", "code"}),
	}
}

// RecordPipelineStart records a new pipeline run starting.
func (m *Metrics) RecordPipelineStart() {
	m.PipelinesActive.Inc()
}

// RecordPipelineEnd records a pipeline run ending with the given outcome
// (success, fallback, failed).
func (m *Metrics) RecordPipelineEnd(outcome string, durationSeconds float64) {
	m.PipelinesActive.Dec()
	m.PipelineDuration.Observe(durationSeconds)
	m.PipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordStage records the latency of one stage call.
func (m *Metrics) RecordStage(stage, provider string, latencySeconds float64) {
	m.StageLatency.WithLabelValues(stage, provider).Observe(latencySeconds)
}

// RecordStageError records a failed stage call.
func (m *Metrics) RecordStageError(stage, kind string) {
	m.StageErrors.WithLabelValues(stage, kind).Inc()
}

// RecordFallback records a stage result substituted with mock data.
func (m *Metrics) RecordFallback(stage string) {
	m.StageFallbacks.WithLabelValues(stage).Inc()
}

// RecordAudioUploaded records audio bytes sent to a transcription provider.
func (m *Metrics) RecordAudioUploaded(bytes int) {
	m.AudioBytesUploaded.Add(float64(bytes))
}

// RecordHealthCheck records a backend probe result.
func (m *Metrics) RecordHealthCheck(reachable bool) {
	result := "unreachable"
	if reachable {
		result = "reachable"
	}
	m.HealthChecks.WithLabelValues(result).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCRequest records a completed gRPC call.
func (m *Metrics) RecordGRPCRequest(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}
