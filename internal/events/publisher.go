package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

// KafkaPublisher writes workout events to a single topic, keyed by user id so that
// events of one user stay ordered within a partition.
type KafkaPublisher struct {
	writer         messageWriter
	topic          string
	metricsManager *metrics.Manager
}

func NewKafkaPublisher(brokers []string, topic string, metricsManager *metrics.Manager) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}, topic, metricsManager)
}

func NewKafkaPublisherWithWriter(writer messageWriter, topic string, metricsManager *metrics.Manager) *KafkaPublisher {
	return &KafkaPublisher{
		writer:         writer,
		topic:          topic,
		metricsManager: metricsManager,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "events.kafka.publish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		result := "ok"
		if err != nil {
			result = "error"
		}
		p.metricsManager.CounterPublishedEvents.WithLabelValues(string(event.Type), result).Inc()
	}()
	span.SetAttributes(
		attribute.String("event.type", string(event.Type)),
		attribute.String("topic", p.topic),
	)

	eventJson, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(event.UserID)),
		Value: eventJson,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write event to %s: %w", p.topic, err)
	}

	log.Tracef("event %s for workout %d published", event.Type, event.WorkoutID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, event Event) error {
	log.Tracef("kafka disabled, dropping event %s for workout %d", event.Type, event.WorkoutID)
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
