// Package kafka publishes export events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/observability"
)

// ExportSink is the sink wrapped by Publisher.
type ExportSink interface {
	Submit(ctx context.Context, job domain.ExportJob) error
}

// MessageWriter is the subset of kafka-go's Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ExportEvent announces an accepted export job.
type ExportEvent struct {
	Description string     `json:"description"`
	Date        string     `json:"date"`
	Path        string     `json:"path"`
	Scale       float64    `json:"scale"`
	BBox        [4]float64 `json:"bbox"`
	Format      string     `json:"format"`
	SceneCount  int        `json:"scene_count"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// Publisher decorates an ExportSink: once the wrapped sink accepts a job,
// an ExportEvent is written to the export topic. It implements
// pipeline.ExportSink.
type Publisher struct {
	next    ExportSink
	writer  MessageWriter
	pathOf  func(domain.ExportJob) string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the export topic.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher wraps next. pathOf resolves where next stored the job.
func NewPublisher(next ExportSink, w MessageWriter, pathOf func(domain.ExportJob) string, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{
		next:    next,
		writer:  w,
		pathOf:  pathOf,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Submit forwards the job and publishes its event. A publish failure fails
// the submission so the exporter retries it.
func (p *Publisher) Submit(ctx context.Context, job domain.ExportJob) error {
	if err := p.next.Submit(ctx, job); err != nil {
		return err
	}

	msg, err := serializeToMessage(p.newEvent(job))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.ExportEvents.WithLabelValues("error").Inc()
		return fmt.Errorf("publish export event %s: %w", job.Description, err)
	}
	p.metrics.ExportEvents.WithLabelValues("success").Inc()
	p.logger.Debug("export event published", "description", job.Description)
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) newEvent(job domain.ExportJob) ExportEvent {
	ev := ExportEvent{
		Description: job.Description,
		Date:        job.Date.Format(domain.DateLayout),
		Scale:       job.Scale,
		BBox:        job.Region.BBox(),
		Format:      string(job.Format),
		SceneCount:  job.SceneCount,
		SubmittedAt: p.clock.Now().UTC(),
	}
	if p.pathOf != nil {
		ev.Path = p.pathOf(job)
	}
	return ev
}

// serializeToMessage marshals an ExportEvent into a Kafka message.
func serializeToMessage(ev ExportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize export event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.Description),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "format", Value: []byte(ev.Format)},
			{Key: "submitted_at", Value: []byte(ev.SubmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
