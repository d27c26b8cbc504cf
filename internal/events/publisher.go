// Package events publishes assessment outcome events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/metrics"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes assessment events to separate Kafka topics.
type Publisher struct {
	writerCompleted messageWriter
	writerFailed    messageWriter
	principal       string
	topicCompleted  string
	topicFailed     string
	enabled         bool
	metrics         *metrics.Metrics
	log             zerolog.Logger
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicCompleted string
	TopicFailed    string
	Principal      string
	Enabled        bool
}

// New creates a Kafka event publisher with separate topics for completed and
// failed assessments. Without brokers it runs in log-only mode.
func New(cfg *Config, m *metrics.Metrics, logger zerolog.Logger) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}

	// Handle nil config case
	if cfg == nil {
		logger.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
			log:     logger,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicCompleted: cfg.TopicCompleted,
			topicFailed:    cfg.TopicFailed,
			enabled:        false,
			metrics:        m,
			log:            logger,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicCompleted", cfg.TopicCompleted).
		Str("topicFailed", cfg.TopicFailed).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerCompleted: newWriter(cfg.TopicCompleted),
		writerFailed:    newWriter(cfg.TopicFailed),
		principal:       cfg.Principal,
		topicCompleted:  cfg.TopicCompleted,
		topicFailed:     cfg.TopicFailed,
		enabled:         true,
		metrics:         m,
		log:             logger,
	}
}

// PublishCompleted publishes a completed-assessment event, keyed by session.
func (p *Publisher) PublishCompleted(ctx context.Context, event models.AssessmentEvent) error {
	event.EventType = models.EventAssessmentCompleted
	return p.publish(ctx, p.writerCompleted, p.topicCompleted, event)
}

// PublishFailed publishes a failed-assessment event, keyed by session.
func (p *Publisher) PublishFailed(ctx context.Context, event models.AssessmentEvent) error {
	event.EventType = models.EventAssessmentFailed
	return p.publish(ctx, p.writerFailed, p.topicFailed, event)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic string, event models.AssessmentEvent) error {
	start := time.Now()
	if event.Timestamp == 0 {
		event.Timestamp = start.UnixMilli()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	p.log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", event.SessionID).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, event.EventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", event.SessionID).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, event.EventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, event.EventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerCompleted != nil {
		if e := p.writerCompleted.Close(); e != nil {
			p.log.Error().Err(e).Msg("Error closing completed writer")
			err = e
		}
	}
	if p.writerFailed != nil {
		if e := p.writerFailed.Close(); e != nil {
			p.log.Error().Err(e).Msg("Error closing failed writer")
			err = e
		}
	}
	return err
}
