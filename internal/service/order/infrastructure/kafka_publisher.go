// internal/service/order/infrastructure/kafka_publisher.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Envelope 是领域事件在 Kafka 上的统一信封。
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// KafkaEventPublisher 实现 port.EventPublisher，把事件写入单一主题，
// 以 correlationID 作为分区键，保证同一次 saga 的事件有序。
type KafkaEventPublisher struct {
	writer   *kafka.Writer
	producer string
}

func NewKafkaEventPublisher(writer *kafka.Writer, producer string) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer, producer: producer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType, correlationID string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal payload for event %s", eventType)
	}
	envelope := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now(),
		Producer:      p.producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}
	if span := trace.SpanContextFromContext(ctx); span.HasTraceID() {
		envelope.TraceID = span.TraceID().String()
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrapf(err, "marshal envelope for event %s", eventType)
	}

	msg := kafka.Message{
		Key:   []byte(correlationID),
		Value: value,
	}
	// 注入追踪上下文，消费端可以在消息头里恢复链路
	carrier := kafkaHeaderCarrier{headers: &msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("correlation_id", correlationID).
			Msg("写入 Kafka 失败")
		return errors.Wrapf(err, "write event %s to kafka", eventType)
	}
	return nil
}

// kafkaHeaderCarrier 把 kafka.Header 适配成 otel 的 TextMapCarrier
type kafkaHeaderCarrier struct {
	headers *[]kafka.Header
}

func (c *kafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *kafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
